package models

import (
	"fmt"
	"time"
)

// Kind identifies which regulatory attribute an extracted value represents
type Kind string

const (
	KindDrawback   Kind = "drawback"
	KindRebate     Kind = "rebate"
	KindImportDuty Kind = "import_duty"
)

// Country is one entry of the static country list used by the import-duty batch.
// Column holds the upper snake case form of Name and is fixed at load time.
type Country struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Column string `json:"column"`
}

// Item is one unit of batch work: a canonical HSN code and, for the
// import-duty batch, the country it is looked up for.
type Item struct {
	Code    string
	Country *Country
}

// Key renders the item for log lines and error messages
func (i Item) Key() string {
	if i.Country == nil {
		return i.Code
	}
	return fmt.Sprintf("%s/%s", i.Code, i.Country.Code)
}

// Status is the tri-state result of an extraction attempt
type Status string

const (
	StatusValue  Status = "value"
	StatusAbsent Status = "absent"
	StatusError  Status = "error"
)

// Outcome is what a strategy returns for one item
type Outcome struct {
	Status Status
	Token  string
	Err    error
}

// Found returns an outcome carrying a raw token
func Found(token string) Outcome {
	return Outcome{Status: StatusValue, Token: token}
}

// Absent returns an explicit not-found outcome
func Absent() Outcome {
	return Outcome{Status: StatusAbsent}
}

// Failed returns an extraction-error outcome
func Failed(err error) Outcome {
	return Outcome{Status: StatusError, Err: err}
}

// Result is the record of one processed item
type Result struct {
	Item       Item      `json:"-"`
	Key        string    `json:"key"`
	Status     Status    `json:"status"`
	Value      *float64  `json:"value"`
	WriteError string    `json:"write_error,omitempty"`
	Elapsed    int64     `json:"elapsed_ms"`
	FinishedAt time.Time `json:"finished_at"`
}
