package vonage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
	"github.com/aussiebroadwan/vonage/pkg/phonex"
)

const niBasicPath = "/ni/basic/json"

// NumberInsight looks up number metadata.
type NumberInsight struct {
	client *httpclient.Client
	host   string
}

// InsightRequest asks for insight on one number.
type InsightRequest struct {
	Number string `json:"number"`
	// Country is an ISO 3166-1 alpha-2 code used when Number is in national format.
	Country string `json:"country,omitempty"`
}

// Validate checks r without sending it.
func (r InsightRequest) Validate() error {
	_, err := r.normalized()
	return err
}

func (r InsightRequest) normalized() (InsightRequest, error) {
	n, err := phonex.Normalize(r.Number)
	if err != nil {
		return r, err
	}
	r.Number = n

	errs := fieldErrors{}
	if r.Country != "" {
		if len(r.Country) != 2 || strings.ToUpper(r.Country) != r.Country {
			errs.add("country", "must be an uppercase ISO 3166-1 alpha-2 code")
		}
	}
	return r, errs.err()
}

// BasicInsight is the basic-tier lookup result.
type BasicInsight struct {
	Status                    int    `json:"status"`
	StatusMessage             string `json:"status_message"`
	RequestID                 string `json:"request_id"`
	InternationalFormatNumber string `json:"international_format_number"`
	NationalFormatNumber      string `json:"national_format_number"`
	CountryCode               string `json:"country_code"`
	CountryCodeISO3           string `json:"country_code_iso3"`
	CountryName               string `json:"country_name"`
	CountryPrefix             string `json:"country_prefix"`
}

// Basic runs a basic lookup. A non-zero status fails with KindAPIFailure.
func (n *NumberInsight) Basic(ctx context.Context, r InsightRequest) (*BasicInsight, error) {
	req, err := r.normalized()
	if err != nil {
		return nil, err
	}

	var resp BasicInsight
	if err := n.client.Get(ctx, n.host, niBasicPath, req, httpclient.AuthBasic, &resp); err != nil {
		return nil, err
	}
	if resp.Status != 0 {
		return nil, &errx.Error{
			Kind:    errx.KindAPIFailure,
			Message: fmt.Sprintf("number insight failed with status %d: %s", resp.Status, resp.StatusMessage),
			Data:    &resp,
		}
	}
	return &resp, nil
}
