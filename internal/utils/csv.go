package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
)

// StructToCsvHeader takes a struct type and returns the CSV header for it.
// It uses the `csv` tag on struct fields to determine the header name.
// If a field doesn't have a `csv` tag, the field name is used.
func StructToCsvHeader(t reflect.Type) []string {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	headers := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		headers = append(headers, headerName(t.Field(i)))
	}
	return headers
}

func headerName(field reflect.StructField) string {
	if tag := field.Tag.Get("csv"); tag != "" {
		return tag
	}
	return field.Name
}

// WriteStructsToCsvFile writes data to filePath with a header derived from T.
// Slice fields are joined with a semicolon.
func WriteStructsToCsvFile[T any](filePath string, data []T) error {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return errors.New("data must be a slice of structs")
	}
	headers := StructToCsvHeader(t)

	records := make([][]string, 0, len(data))
	for _, item := range data {
		row, err := structToRow(headers, item)
		if err != nil {
			return err
		}
		records = append(records, row)
	}
	return WriteCsvFile(filePath, headers, records)
}

func structToRow(headers []string, item any) ([]string, error) {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, errors.New("data must be a slice of structs")
	}

	row := make([]string, len(headers))
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		idx := IndexOf(headers, headerName(t.Field(i)))
		if idx < 0 {
			continue
		}

		fieldValue := v.Field(i)
		if fieldValue.Kind() == reflect.Slice {
			parts := make([]string, fieldValue.Len())
			for j := range parts {
				parts[j] = fmt.Sprintf("%v", fieldValue.Index(j).Interface())
			}
			row[idx] = strings.Join(parts, ";")
			continue
		}
		row[idx] = fmt.Sprintf("%v", fieldValue.Interface())
	}
	return row, nil
}

// WriteCsvFile creates (or truncates) filePath and writes headers followed by records.
func WriteCsvFile(filePath string, headers []string, records [][]string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	if err := writer.WriteAll(records); err != nil {
		return fmt.Errorf("write CSV rows: %w", err)
	}
	return file.Close()
}

// ReadCsvFile returns the header row and the remaining records of filePath.
func ReadCsvFile(filePath string) ([]string, [][]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read CSV file: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, errors.New("CSV file is empty")
	}
	return records[0], records[1:], nil
}

// IndexOf returns the index of item in slice or -1 if not found.
func IndexOf(slice []string, item string) int {
	for i, v := range slice {
		if v == item {
			return i
		}
	}
	return -1
}
