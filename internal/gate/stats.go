package gate

import (
	"encoding/xml"
	"sync"
	"time"
)

const (
	// historyLimit bounds the in-memory validation history ring.
	historyLimit = 100
	// reportRecent is how many recent records each report carries.
	reportRecent = 10
	// reportEvery triggers a report flush on every Nth processed request.
	reportEvery = 10
	// timestampLayout is the human-readable stamp used in records/reports.
	timestampLayout = "2006-01-02 15:04:05"
)

// Record is one validation decision kept for reporting.
type Record struct {
	TicketID  string
	Timestamp string
	Valid     bool
	Mode      string
}

// stats accumulates a gate's monotonic counters and its bounded validation
// history.  One mutex guards both, so a record and its counter bump are
// atomic with respect to report snapshots.
type stats struct {
	mu      sync.Mutex
	total   int
	valid   int
	invalid int
	history []Record
}

// record appends one decision and returns the new total, which the
// validator uses to decide whether this request triggers a report flush.
func (s *stats) record(rec Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	if rec.Valid {
		s.valid++
	} else {
		s.invalid++
	}
	s.history = append(s.history, rec)
	if len(s.history) > historyLimit {
		// Evict oldest first.
		s.history = s.history[len(s.history)-historyLimit:]
	}
	return s.total
}

// snapshot returns the counters and the most recent records, newest first.
func (s *stats) snapshot() (total, valid, invalid int, recent []Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.history)
	if n > reportRecent {
		n = reportRecent
	}
	recent = make([]Record, 0, n)
	for i := 0; i < n; i++ {
		recent = append(recent, s.history[len(s.history)-1-i])
	}
	return s.total, s.valid, s.invalid, recent
}

// GateReport is the XML report body pushed to the back-office.  The layout
// matches what the back-office archives, so element names are fixed.
type GateReport struct {
	XMLName    xml.Name         `xml:"GateReport"`
	GateID     string           `xml:"GateId"`
	Timestamp  string           `xml:"Timestamp"`
	Statistics ReportStatistics `xml:"Statistics"`
	Recent     RecentBlock      `xml:"RecentValidations"`
}

// ReportStatistics carries the cumulative counters.
type ReportStatistics struct {
	TotalProcessed int `xml:"TotalProcessed"`
	ValidCount     int `xml:"ValidCount"`
	InvalidCount   int `xml:"InvalidCount"`
}

// RecentBlock wraps the recent validation entries.
type RecentBlock struct {
	Validations []ReportValidation `xml:"Validation"`
}

// ReportValidation is one entry in the report's recent list.
type ReportValidation struct {
	TicketID  string `xml:"TicketId"`
	Timestamp string `xml:"Timestamp"`
	Valid     bool   `xml:"Valid"`
	Mode      string `xml:"Mode"`
}

// buildReport snapshots the stats into a marshalable report.
func (s *stats) buildReport(gateID string, now time.Time) GateReport {
	total, valid, invalid, recent := s.snapshot()

	entries := make([]ReportValidation, 0, len(recent))
	for _, rec := range recent {
		entries = append(entries, ReportValidation{
			TicketID:  rec.TicketID,
			Timestamp: rec.Timestamp,
			Valid:     rec.Valid,
			Mode:      rec.Mode,
		})
	}
	return GateReport{
		GateID:    gateID,
		Timestamp: now.Format(timestampLayout),
		Statistics: ReportStatistics{
			TotalProcessed: total,
			ValidCount:     valid,
			InvalidCount:   invalid,
		},
		Recent: RecentBlock{Validations: entries},
	}
}
