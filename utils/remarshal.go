package utils

import (
	"encoding/json"
)

func Remarshal(input interface{}, output interface{}) error {
	b, err := json.Marshal(input)
	if nil != err {
		return err
	}
	return json.Unmarshal(b, output)
}
