package tools

import (
	"encoding/xml"
)

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Say     twimlSay `xml:"Say"`
}

type twimlSay struct {
	Language string `xml:"language,attr"`
	Voice    string `xml:"voice,attr"`
	Text     string `xml:",chardata"`
}

// SayTwiML renders the voice script read to the owner in Japanese
func SayTwiML(message string) (string, error) {
	out, err := xml.Marshal(twimlResponse{
		Say: twimlSay{Language: "ja-JP", Voice: "alice", Text: message},
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
