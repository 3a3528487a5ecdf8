package main

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// Person is the sample model the demo stores
type Person struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

func (p *Person) ObjectType() string { return "person" }
func (p *Person) PrimaryKey() any    { return p.ID }

func (p *Person) String() string {
	return fmt.Sprintf("Person{id: %d, name: %q}", p.ID, p.Name)
}

// FromJSON reads {"id": 1, "name": "Ann", "email": "..."}
func (p *Person) FromJSON(doc gjson.Result) error {
	if !doc.IsObject() {
		return errors.New("person must be a JSON object")
	}

	id := doc.Get("id")
	if id.Type != gjson.Number {
		return errors.New("person id must be a number")
	}

	p.ID = int(id.Int())
	p.Name = doc.Get("name").String()
	p.Email = doc.Get("email").String()
	return nil
}
