// internal/model/job.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SourceType represents the transport a job arrived on
type SourceType string

const (
	SourceTCP    SourceType = "TCP"
	SourceSerial SourceType = "SERIAL"
	SourceHTTP   SourceType = "HTTP"
	SourceFile   SourceType = "FILE"
)

// Job is one complete print transaction as delivered by a listener. It is
// never modified after assembly.
type Job struct {
	ID         uuid.UUID
	Data       []byte
	Source     string
	SourceType SourceType
	ReceivedAt time.Time
}

// NewJob assembles a job and derives its source label
func NewJob(sourceType SourceType, origin string, data []byte) *Job {
	return &Job{
		ID:         uuid.New(),
		Data:       data,
		Source:     SourceLabel(sourceType, origin),
		SourceType: sourceType,
		ReceivedAt: time.Now(),
	}
}

// SourceLabel builds labels such as TCP-127.0.0.1:50312 or SERIAL-COM2
func SourceLabel(sourceType SourceType, origin string) string {
	return fmt.Sprintf("%s-%s", sourceType, origin)
}

var unsafeFileChars = regexp.MustCompile(`[:/\\*?"<>|]`)

// SafeSource returns the source label with characters that are invalid in
// file names replaced by underscores
func (j *Job) SafeSource() string {
	return unsafeFileChars.ReplaceAllString(j.Source, "_")
}

// Timestamp returns the file name timestamp of the job: RFC 3339 in UTC with
// millisecond precision, with ':' and '.' replaced by '-'
func (j *Job) Timestamp() string {
	ts := j.ReceivedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00")
	return strings.NewReplacer(":", "-", ".", "-").Replace(ts)
}

// PrintJob is the persisted record of a processed job
type PrintJob struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Source         string     `json:"source" db:"source"`
	SourceType     SourceType `json:"source_type" db:"source_type"`
	ReceivedAt     time.Time  `json:"received_at" db:"received_at"`
	ByteCount      int        `json:"byte_count" db:"byte_count"`
	TokenCount     int        `json:"token_count" db:"token_count"`
	Codepage       string     `json:"codepage" db:"codepage"`
	OutputCodepage string     `json:"output_codepage" db:"output_codepage"`
	RawPath        string     `json:"raw_path" db:"raw_path"`
	RichTextPath   string     `json:"rich_text_path" db:"rich_text_path"`
	PlainTextPath  string     `json:"plain_text_path" db:"plain_text_path"`
	Preview        string     `json:"preview" db:"preview"`
	Stats          JSONObject `json:"stats" db:"stats"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// JobFilter narrows job listings
type JobFilter struct {
	SourceType *SourceType
	Since      *time.Time
	Limit      int
	Offset     int
}

// JSONObject type for PostgreSQL JSONB objects
type JSONObject map[string]interface{}

// Scan implements sql.Scanner
func (j *JSONObject) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return fmt.Errorf("unsupported JSONB value type %T", value)
	}
	return json.Unmarshal(bytes, j)
}

// Value implements driver.Valuer
func (j JSONObject) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
