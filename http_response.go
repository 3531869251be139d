package wrs

import (
	"encoding/json"
	"net/http"
)

// WriteHTTPBad writes a structured failure response to a plain HTTP
// request.
func WriteHTTPBad(res http.ResponseWriter, status int, codes *Codes, code string) error {
	return writeHTTPResponse(res, status, NewResponse(codes, 0, codes.Resolve(code), ""))
}

// WriteHTTPOk writes a structured successful response to a plain HTTP
// request.
func WriteHTTPOk(res http.ResponseWriter, codes *Codes, class string, data any) error {
	return writeHTTPResponse(res, http.StatusOK, NewResponse(codes, 0, 0, &OkMessage{Class: class, Data: toSendable(data)}))
}

func writeHTTPResponse(res http.ResponseWriter, status int, response *Response) error {
	body, err := json.Marshal(response)
	if err != nil {
		return err
	}
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	_, err = res.Write(body)
	return err
}
