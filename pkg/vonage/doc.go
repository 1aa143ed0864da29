// Package vonage is the entry point of the SDK. It wires the credential
// store, the HTTP engine and the CAMARA flows into one client and exposes
// one façade per product API:
//
//	v, err := vonage.New(auth.Credentials{
//		APIKey:    os.Getenv("VONAGE_API_KEY"),
//		APISecret: os.Getenv("VONAGE_API_SECRET"),
//	}, nil)
//	if err != nil {
//		return err
//	}
//	defer v.Close()
//
//	resp, err := v.SMS.Send(ctx, vonage.SMSRequest{
//		From: "Acme",
//		To:   "447700900000",
//		Text: "Your code is 1234",
//	})
//
// Request types have a Validate method that every façade calls before any
// network I/O. Failures are *errx.Error values; compare them with errors.Is
// against the errx sentinels.
package vonage
