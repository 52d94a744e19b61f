package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Labels is a string-to-string label set stored as a JSON text column.
type Labels map[string]string

func (l Labels) Value() (driver.Value, error) {
	if l == nil {
		l = Labels{}
	}
	b, err := json.Marshal(l)
	return string(b), err
}

func (l *Labels) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = Labels{}
		return nil
	case []byte:
		if len(v) == 0 {
			*l = Labels{}
			return nil
		}
		return json.Unmarshal(v, l)
	case string:
		if v == "" {
			*l = Labels{}
			return nil
		}
		return json.Unmarshal([]byte(v), l)
	}
	return fmt.Errorf("unsupported labels column type %T", src)
}

// Flow is one observed network interaction between two workloads.
// Rows are immutable once ingested; they are only ever inserted or deleted.
type Flow struct {
	FlowID               string    `gorm:"primaryKey;size:64" json:"flow_id"`
	Timestamp            time.Time `gorm:"index;not null" json:"timestamp"`
	SourceNamespace      string    `gorm:"index;size:255;not null" json:"source_namespace"`
	SourcePod            string    `gorm:"size:255" json:"source_pod,omitempty"`
	SourceLabels         Labels    `gorm:"type:text" json:"source_labels"`
	DestinationNamespace string    `gorm:"index;size:255;not null" json:"destination_namespace"`
	DestinationPod       string    `gorm:"size:255" json:"destination_pod,omitempty"`
	DestinationLabels    Labels    `gorm:"type:text" json:"destination_labels"`
	DestinationPort      int       `json:"destination_port,omitempty"`
	Protocol             string    `gorm:"size:16" json:"protocol,omitempty"`
	HTTPMethod           string    `gorm:"size:16" json:"http_method,omitempty"`
	HTTPPath             string    `gorm:"size:512" json:"http_path,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}
