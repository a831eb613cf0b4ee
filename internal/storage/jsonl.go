package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"liquidityCore/internal/model"
)

// JsonlJournal appends mint records to a JSONL file.
type JsonlJournal struct {
	path string
	mu   sync.Mutex
}

func NewJsonlJournal(path string) *JsonlJournal {
	return &JsonlJournal{path: path}
}

// AppendMints appends a batch of mint records as JSON lines.
func (j *JsonlJournal) AppendMints(records []model.MintRecord) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(j.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create journal dir: %w", err)
		}
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open journal file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal mint record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write mint record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush journal: %w", err)
	}

	return nil
}

// ReadMints loads every mint record from a JSONL journal.
func ReadMints(path string) ([]model.MintRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal file: %w", err)
	}
	defer file.Close()

	var records []model.MintRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record model.MintRecord
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("parse mint record: %w", err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	return records, nil
}

// ReadInstructions loads every mint instruction from a JSONL file.
func ReadInstructions(path string) ([]model.MintInstruction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open instructions file: %w", err)
	}
	defer file.Close()

	var instructions []model.MintInstruction
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var instruction model.MintInstruction
		if err := json.Unmarshal(line, &instruction); err != nil {
			return nil, fmt.Errorf("parse mint instruction: %w", err)
		}
		instructions = append(instructions, instruction)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read instructions: %w", err)
	}
	return instructions, nil
}
