// Package store persists message records in a local sqlite database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vintas/mailman/internal/mail"
)

// Message is the stored row shape. Address lists, labels, and headers
// are kept as JSON-encoded text columns.
type Message struct {
	ID               uint      `gorm:"primaryKey"`
	MessageID        string    `gorm:"uniqueIndex;not null"`
	ThreadID         string    `gorm:"index"`
	FromAddress      string    `gorm:"index"`
	ToAddresses      string
	CcAddresses      string
	BccAddresses     string
	Subject          string    `gorm:"index"`
	BodyPlain        string
	BodyHTML         string
	ReceivedDatetime time.Time `gorm:"index;not null"`
	Snippet          string
	Labels           string
	RawHeaders       string
}

// Store wraps the sqlite-backed message table.
type Store struct {
	db     *gorm.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and migrates the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Message{}); err != nil {
		return nil, fmt.Errorf("migrate messages table: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Save inserts a record, ignoring duplicates by message ID. It reports
// whether a new row was created.
func (s *Store) Save(rec mail.Record) (bool, error) {
	row, err := toRow(rec)
	if err != nil {
		return false, err
	}
	res := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "message_id"}},
		DoNothing: true,
	}).Create(&row)
	if res.Error != nil {
		return false, fmt.Errorf("store message %s: %w", rec.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		s.logger.Debug("message already stored", "message", rec.ID)
		return false, nil
	}
	return true, nil
}

// Has reports whether a message ID is already stored.
func (s *Store) Has(id mail.MessageID) (bool, error) {
	var count int64
	if err := s.db.Model(&Message{}).Where("message_id = ?", string(id)).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check message %s: %w", id, err)
	}
	return count > 0, nil
}

// All returns every stored record, oldest first.
func (s *Store) All() ([]mail.Record, error) {
	var rows []Message
	if err := s.db.Order("received_datetime asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	out := make([]mail.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := toRecord(row)
		if err != nil {
			// a corrupt row should not hide the rest of the mailbox
			s.logger.Warn("skipping undecodable row", "message", row.MessageID, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func toRow(rec mail.Record) (Message, error) {
	if rec.ID == "" {
		return Message{}, errors.New("record has no message ID")
	}
	to, err := encodeStrings(rec.To)
	if err != nil {
		return Message{}, err
	}
	cc, err := encodeStrings(rec.Cc)
	if err != nil {
		return Message{}, err
	}
	bcc, err := encodeStrings(rec.Bcc)
	if err != nil {
		return Message{}, err
	}
	labels, err := encodeLabels(rec.Labels)
	if err != nil {
		return Message{}, err
	}
	headers, err := encodeHeaders(rec.Headers)
	if err != nil {
		return Message{}, err
	}
	return Message{
		MessageID:        string(rec.ID),
		ThreadID:         string(rec.ThreadID),
		FromAddress:      rec.From,
		ToAddresses:      to,
		CcAddresses:      cc,
		BccAddresses:     bcc,
		Subject:          rec.Subject,
		BodyPlain:        rec.BodyPlain,
		BodyHTML:         rec.BodyHTML,
		ReceivedDatetime: rec.ReceivedAt.UTC(),
		Snippet:          rec.Snippet,
		Labels:           labels,
		RawHeaders:       headers,
	}, nil
}

func toRecord(row Message) (mail.Record, error) {
	to, err := decodeStrings(row.ToAddresses)
	if err != nil {
		return mail.Record{}, fmt.Errorf("to_addresses: %w", err)
	}
	cc, err := decodeStrings(row.CcAddresses)
	if err != nil {
		return mail.Record{}, fmt.Errorf("cc_addresses: %w", err)
	}
	bcc, err := decodeStrings(row.BccAddresses)
	if err != nil {
		return mail.Record{}, fmt.Errorf("bcc_addresses: %w", err)
	}
	labels, err := decodeLabels(row.Labels)
	if err != nil {
		return mail.Record{}, fmt.Errorf("labels: %w", err)
	}
	headers, err := decodeHeaders(row.RawHeaders)
	if err != nil {
		return mail.Record{}, fmt.Errorf("raw_headers: %w", err)
	}
	return mail.Record{
		ID:         mail.MessageID(row.MessageID),
		ThreadID:   mail.ThreadID(row.ThreadID),
		From:       row.FromAddress,
		To:         to,
		Cc:         cc,
		Bcc:        bcc,
		Subject:    row.Subject,
		BodyPlain:  row.BodyPlain,
		BodyHTML:   row.BodyHTML,
		ReceivedAt: row.ReceivedDatetime.UTC(),
		Snippet:    row.Snippet,
		Labels:     labels,
		Headers:    headers,
	}, nil
}

func encodeStrings(vals []string) (string, error) {
	if vals == nil {
		vals = []string{}
	}
	raw, err := json.Marshal(vals)
	if err != nil {
		return "", fmt.Errorf("encode string list: %w", err)
	}
	return string(raw), nil
}

func decodeStrings(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeLabels(vals []mail.LabelID) (string, error) {
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = string(v)
	}
	return encodeStrings(strs)
}

func decodeLabels(raw string) ([]mail.LabelID, error) {
	strs, err := decodeStrings(raw)
	if err != nil {
		return nil, err
	}
	out := make([]mail.LabelID, len(strs))
	for i, s := range strs {
		out[i] = mail.LabelID(s)
	}
	return out, nil
}

func encodeHeaders(h map[string]string) (string, error) {
	if h == nil {
		h = map[string]string{}
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("encode headers: %w", err)
	}
	return string(raw), nil
}

func decodeHeaders(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var out map[string]string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}
