// internal/model/message.go
package model

// Message is the only record on the board. ID is empty until the service
// assigns one.
type Message struct {
	ID   string `json:"id" db:"id"`
	Text string `json:"text" db:"text"`
}

// HasID reports whether the message already carries an identifier.
func (m Message) HasID() bool {
	return m.ID != ""
}
