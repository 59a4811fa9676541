package xrpc

import "encoding/json"

type ServerLinks struct {
	PrivacyPolicy  string `json:"privacyPolicy,omitempty"`
	TermsOfService string `json:"termsOfService,omitempty"`
}

type DescribeServerResponse struct {
	DID                  string      `json:"did,omitempty"`
	AvailableUserDomains []string    `json:"availableUserDomains"`
	InviteCodeRequired   bool        `json:"inviteCodeRequired"`
	Links                ServerLinks `json:"links"`
}

type SessionResponse struct {
	AccessJwt  string `json:"accessJwt"`
	RefreshJwt string `json:"refreshJwt"`
	Handle     string `json:"handle"`
	DID        string `json:"did"`
	Email      string `json:"email,omitempty"`
}

// APIErrorEnvelope is the standard XRPC error body, e.g.
// {"error":"AuthMissing","message":"Authentication Required"}.
type APIErrorEnvelope struct {
	Name    string `json:"error"`
	Message string `json:"message"`
}

type APIError struct {
	StatusCode int
	Envelope   APIErrorEnvelope
	Body       []byte
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if e.Envelope.Message != "" {
		return e.Envelope.Name + ": " + e.Envelope.Message
	}
	if e.Envelope.Name != "" {
		return e.Envelope.Name
	}
	return string(e.Body)
}

func ParseAPIErrorEnvelope(body []byte) (APIErrorEnvelope, bool) {
	var envelope APIErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return APIErrorEnvelope{}, false
	}
	if envelope.Name == "" && envelope.Message == "" {
		return APIErrorEnvelope{}, false
	}
	return envelope, true
}
