package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cyberinferno/boggle-server/utils"
)

// NewRequest frames a request whose body is v encoded as JSON. A nil v
// produces an empty body.
func NewRequest(method, path string, v any) ([]byte, error) {
	var body []byte
	if v != nil {
		var err error
		body, err = json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
	}

	head := method + " " + path + " HTTP/1.1\r\n" +
		"Content-Type: " + contentType + "\r\n" +
		"Content-Length: " + strconv.Itoa(len(body)) + "\r\n" +
		"\r\n"

	return utils.JoinBytes([]byte(head), body), nil
}
