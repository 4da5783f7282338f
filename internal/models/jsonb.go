package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is a JSONB-backed ordered list of strings (claim evidence,
// oracle panels).
type StringList []string

func (s StringList) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(s)
}

func (s *StringList) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("StringList: Scan failed, expected []byte but got %T", value)
	}

	return json.Unmarshal(b, s)
}

func (s StringList) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// VoteMap is a JSONB-backed oracle address to vote mapping, write-once per key.
type VoteMap map[string]bool

func (v VoteMap) Value() (driver.Value, error) {
	if v == nil {
		return json.Marshal(map[string]bool{})
	}
	return json.Marshal(v)
}

func (v *VoteMap) Scan(value any) error {
	if value == nil {
		*v = nil
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("VoteMap: Scan failed, expected []byte but got %T", value)
	}

	return json.Unmarshal(b, v)
}
