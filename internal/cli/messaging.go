package cli

import (
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/vonage/pkg/vonage"
)

func newSMSCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sms",
		Short: "Send SMS through the SMS API",
	}
	cmd.AddCommand(newSMSSendCmd())
	return cmd
}

func newSMSSendCmd() *cobra.Command {
	var req vonage.SMSRequest

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one SMS",
		Long: `Send one SMS. The request is signed when a signature secret is
configured and uses the API key and secret otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := req.Validate(); err != nil {
				return err
			}
			c, err := clientFrom(cmd)
			if err != nil {
				return err
			}
			resp, err := c.SMS.Send(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&req.From, "from", "", "Sender id or number")
	cmd.Flags().StringVar(&req.To, "to", "", "Recipient number")
	cmd.Flags().StringVar(&req.Text, "text", "", "Message body")
	cmd.Flags().StringVar(&req.Type, "type", "", "Message type: text, unicode or binary")
	cmd.Flags().StringVar(&req.ClientRef, "client-ref", "", "Reference echoed in delivery receipts")
	cmd.Flags().StringVar(&req.Callback, "callback", "", "Delivery receipt webhook URL")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}
