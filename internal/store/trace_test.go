package store

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTraceWriter_WriteAndRead(t *testing.T) {
	runDir := t.TempDir()

	writer, err := NewTraceWriter(runDir, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	entries := []TraceEntry{
		{Round: 1, Metric: 1.0, Best: 1.0, Improved: true, Timestamp: time.Now()},
		{Round: 2, Metric: 0.8, Best: 0.8, Improved: true, Timestamp: time.Now()},
		{Round: 3, Metric: 0.9, Best: 0.8, Improved: false, Timestamp: time.Now()},
		{Round: 4, Metric: 0.6, Best: 0.6, Improved: true, Timestamp: time.Now()},
	}

	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	// Verify file exists
	tracePath := filepath.Join(runDir, "trace.jsonl")
	if _, err := os.Stat(tracePath); os.IsNotExist(err) {
		t.Fatalf("Trace file not created: %s", tracePath)
	}

	reader, err := NewTraceReader(runDir)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	readEntries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}

	if len(readEntries) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(readEntries))
	}
	for i, entry := range readEntries {
		if entry.Round != entries[i].Round {
			t.Errorf("Entry %d: expected round %d, got %d", i, entries[i].Round, entry.Round)
		}
		if entry.Metric != entries[i].Metric {
			t.Errorf("Entry %d: expected metric %f, got %f", i, entries[i].Metric, entry.Metric)
		}
		if entry.Improved != entries[i].Improved {
			t.Errorf("Entry %d: expected improved %v, got %v", i, entries[i].Improved, entry.Improved)
		}
	}
}

func TestTraceWriter_Append(t *testing.T) {
	runDir := t.TempDir()

	writer, err := NewTraceWriter(runDir, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	if err := writer.Write(TraceEntry{Round: 1, Metric: 1.0, Best: 1.0, Improved: true, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	// Append more entries (resumed run)
	writer, err = NewTraceWriter(runDir, true)
	if err != nil {
		t.Fatalf("Failed to create trace writer in append mode: %v", err)
	}
	if err := writer.Write(TraceEntry{Round: 2, Metric: 0.8, Best: 0.8, Improved: true, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewTraceReader(runDir)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[0].Round != 1 || entries[1].Round != 2 {
		t.Errorf("Unexpected rounds: %d, %d", entries[0].Round, entries[1].Round)
	}
}

func TestTraceWriter_Flush(t *testing.T) {
	runDir := t.TempDir()

	writer, err := NewTraceWriter(runDir, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	if err := writer.Write(TraceEntry{Round: 1, Metric: 1.0, Best: 1.0, Improved: true, Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	// Data should be on disk now (even without closing)
	data, err := os.ReadFile(filepath.Join(runDir, "trace.jsonl"))
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Trace file is empty after flush")
	}
}

func TestTraceReader_ReadIteratively(t *testing.T) {
	runDir := t.TempDir()

	writer, err := NewTraceWriter(runDir, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	for i := 1; i <= 5; i++ {
		entry := TraceEntry{Round: i, Metric: 1.0 - float64(i)*0.1, Best: 1.0 - float64(i)*0.1, Improved: true, Timestamp: time.Now()}
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	writer.Close()

	reader, err := NewTraceReader(runDir)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		entry, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read entry: %v", err)
		}

		count++
		if entry.Round != count {
			t.Errorf("Entry %d: expected round %d, got %d", count, count, entry.Round)
		}
	}

	if count != 5 {
		t.Errorf("Expected to read 5 entries, got %d", count)
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	runDir := t.TempDir()

	_, err := NewTraceReader(runDir)
	if err == nil {
		t.Fatal("Expected error for missing trace file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist in chain, got: %v", err)
	}
}

func TestTraceWriter_ConcurrentWrites(t *testing.T) {
	runDir := t.TempDir()

	writer, err := NewTraceWriter(runDir, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(round int) {
			entry := TraceEntry{
				Round:     round,
				Metric:    float64(round),
				Best:      float64(round),
				Timestamp: time.Now(),
			}
			if err := writer.Write(entry); err != nil {
				t.Errorf("Concurrent write failed: %v", err)
			}
			done <- true
		}(i + 1)
	}

	// Wait for all writes
	for i := 0; i < 10; i++ {
		<-done
	}

	writer.Flush()

	reader, err := NewTraceReader(runDir)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("Expected 10 entries, got %d", len(entries))
	}
}
