package vonage

import (
	"context"
	"net/netip"
	"strings"
	"time"

	"github.com/aussiebroadwan/vonage/pkg/errx"
	"github.com/aussiebroadwan/vonage/pkg/httpclient"
)

const (
	videoSessionPath = "/session/create"

	// DefaultClientTokenTTL is the lifetime of a client token without an explicit expiry.
	DefaultClientTokenTTL = 24 * time.Hour
	maxClientTokenTTL     = 30 * 24 * time.Hour
)

// Video creates sessions and client tokens for the Video API.
type Video struct {
	client *httpclient.Client
	host   string
}

// SessionOptions configures a new video session.
type SessionOptions struct {
	// MediaMode is "relayed" (default) or "routed".
	MediaMode string
	// ArchiveMode is "manual" (default) or "always". Archiving needs routed media.
	ArchiveMode string
	// Location is an IPv4 address hinting where the session should be hosted.
	Location string
	// E2EE enables end-to-end encryption. It needs routed media.
	E2EE bool
}

// Validate checks o without sending it.
func (o SessionOptions) Validate() error {
	errs := fieldErrors{}

	if o.MediaMode != "" && !oneOf(o.MediaMode, "relayed", "routed") {
		errs.add("mediaMode", "must be relayed or routed")
	}
	if o.ArchiveMode != "" && !oneOf(o.ArchiveMode, "manual", "always") {
		errs.add("archiveMode", "must be manual or always")
	}
	routed := o.MediaMode == "routed"
	if o.ArchiveMode == "always" && !routed {
		errs.add("archiveMode", "always requires routed media")
	}
	if o.E2EE && !routed {
		errs.add("e2ee", "requires routed media")
	}
	if o.Location != "" {
		if addr, err := netip.ParseAddr(o.Location); err != nil || !addr.Is4() {
			errs.add("location", "must be an IPv4 address")
		}
	}
	return errs.err()
}

func (o SessionOptions) params() map[string]string {
	p := map[string]string{
		"archiveMode":    "manual",
		"p2p.preference": "enabled",
	}
	if o.ArchiveMode != "" {
		p["archiveMode"] = o.ArchiveMode
	}
	if o.MediaMode == "routed" {
		p["p2p.preference"] = "disabled"
	}
	if o.Location != "" {
		p["location"] = o.Location
	}
	if o.E2EE {
		p["e2ee"] = "true"
	}
	return p
}

// Session is a created video session.
type Session struct {
	SessionID      string `json:"session_id"`
	ApplicationID  string `json:"application_id"`
	CreateDt       string `json:"create_dt"`
	MediaServerURL string `json:"media_server_url"`
	MediaMode      string `json:"-"`
	ArchiveMode    string `json:"-"`
	Location       string `json:"-"`
	E2EE           bool   `json:"-"`
}

// CreateSession creates a session. It authenticates with the application JWT.
func (v *Video) CreateSession(ctx context.Context, o SessionOptions) (*Session, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	var sessions []Session
	if err := v.client.Post(ctx, v.host, videoSessionPath, o.params(), httpclient.AuthJWT, httpclient.Form, &sessions); err != nil {
		return nil, err
	}
	if len(sessions) == 0 || sessions[0].SessionID == "" {
		return nil, errx.New(errx.KindProtocolFailure, "session create response has no session_id")
	}

	s := sessions[0]
	s.MediaMode = o.MediaMode
	if s.MediaMode == "" {
		s.MediaMode = "relayed"
	}
	s.ArchiveMode = o.params()["archiveMode"]
	s.Location = o.Location
	s.E2EE = o.E2EE
	return &s, nil
}

// TokenOptions configures a client token.
type TokenOptions struct {
	// Role is "publisher" (default), "subscriber", "moderator" or "publisheronly".
	Role string
	// Data is connection metadata passed to other clients, at most 1000 characters.
	Data string
	// ExpireTime defaults to DefaultClientTokenTTL from now and may be at most 30 days ahead.
	ExpireTime time.Time
	// InitialLayoutClassList names the layout classes of the client's stream.
	InitialLayoutClassList []string
}

// ClientToken mints the JWT a video client connects to sessionID with. It
// does no I/O.
func (v *Video) ClientToken(sessionID string, o TokenOptions) (string, error) {
	return v.clientToken(sessionID, o, time.Now())
}

func (v *Video) clientToken(sessionID string, o TokenOptions, now time.Time) (string, error) {
	errs := fieldErrors{}
	if sessionID == "" {
		errs.add("session_id", requiredReason)
	}
	role := o.Role
	if role == "" {
		role = "publisher"
	}
	if !oneOf(role, "publisher", "subscriber", "moderator", "publisheronly") {
		errs.add("role", "must be publisher, subscriber, moderator or publisheronly")
	}
	if len(o.Data) > 1000 {
		errs.add("data", "too long (max 1000)")
	}

	claims := map[string]any{
		"scope":                     "session.connect",
		"session_id":                sessionID,
		"role":                      role,
		"initial_layout_class_list": strings.Join(o.InitialLayoutClassList, " "),
		"sub":                       "video",
		"acl":                       map[string]any{"paths": map[string]any{"/session/**": map[string]any{}}},
		"iat":                       now.Unix(),
	}
	if o.Data != "" {
		claims["data"] = o.Data
	}

	exp := o.ExpireTime
	if exp.IsZero() {
		exp = now.Add(DefaultClientTokenTTL)
	}
	switch {
	case !exp.After(now):
		errs.add("expire_time", "must be in the future")
	case exp.Sub(now) > maxClientTokenTTL:
		errs.add("expire_time", "must be at most 30 days ahead")
	}
	claims["exp"] = exp.Unix()

	if err := errs.err(); err != nil {
		return "", err
	}
	return v.client.Auth().GenerateJWT(claims)
}
