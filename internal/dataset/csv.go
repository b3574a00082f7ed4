package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ReadCSV reads a header row followed by data rows.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("error reading csv header: %w", err)
	}
	header = append([]string(nil), header...)

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error reading csv records: %w", err)
	}

	return NewFrame(header, records)
}

func WriteCSV(w io.Writer, f *Frame) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns()); err != nil {
		return fmt.Errorf("error writing csv header: %w", err)
	}
	for i := 0; i < f.Len(); i++ {
		if err := writer.Write(f.Row(i)); err != nil {
			return fmt.Errorf("error writing csv row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
