package bytewatt

import "encoding/json"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Code int       `json:"code"`
	Data loginData `json:"data"`
}

type loginData struct {
	AccessToken string `json:"AccessToken"`
}

// powerDataResponse keeps data raw; the field set varies per installation
// so it is parsed tolerantly rather than into a fixed struct.
type powerDataResponse struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}
