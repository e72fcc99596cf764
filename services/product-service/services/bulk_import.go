package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	apperrors "github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/errors"
	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/product-service/models"
)

// ErrUnsupportedSheet is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedSheet = errors.New("only .csv and .xlsx files are supported")

// MaxBulkRows caps the rows accepted in one import.
const MaxBulkRows = 1000

// readSheet returns the rows of a CSV file or of the first XLSX sheet.
func readSheet(r io.Reader, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		return reader.ReadAll()
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		return f.GetRows(sheets[0])
	default:
		return nil, ErrUnsupportedSheet
	}
}

// rowFields maps a data row onto the header. Detailed image URLs are
// separated by "|" within their cell; blank cells are omitted.
func rowFields(header, row []string) map[string]interface{} {
	fields := make(map[string]interface{}, len(header))
	for i, key := range header {
		if i >= len(row) {
			break
		}
		cell := strings.TrimSpace(row[i])
		if cell == "" {
			continue
		}
		if key == models.FieldDetailedImages {
			var urls []string
			for _, u := range strings.Split(cell, "|") {
				if u = strings.TrimSpace(u); u != "" {
					urls = append(urls, u)
				}
			}
			fields[key] = urls
			continue
		}
		fields[key] = cell
	}
	return fields
}

func parseSheet(r io.Reader, filename string) ([]string, [][]string, error) {
	rows, err := readSheet(r, filename)
	if err != nil {
		return nil, nil, apperrors.InvalidArgument("Could not read import file: "+err.Error(), err)
	}
	if len(rows) < 2 {
		return nil, nil, apperrors.InvalidArgument("Import file has no data rows", nil)
	}
	if len(rows)-1 > MaxBulkRows {
		return nil, nil, apperrors.InvalidArgument(fmt.Sprintf("Import file exceeds %d rows", MaxBulkRows), nil)
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	return header, rows[1:], nil
}

// ValidateBulkImport checks every row without writing anything. Duplicate
// names within the file are reported; names already stored are not checked.
func (s *ProductService) ValidateBulkImport(ctx context.Context, r io.Reader, filename string) (*models.BulkImportResult, error) {
	header, rows, err := parseSheet(r, filename)
	if err != nil {
		return nil, err
	}

	result := &models.BulkImportResult{TotalRows: len(rows), Errors: []models.BulkRowError{}}
	seen := map[string]int{}
	for i, row := range rows {
		line := i + 2
		fields := rowFields(header, row)
		name, _ := fields[models.FieldName].(string)

		coerced, err := models.CoerceFields(fields)
		if err == nil {
			_, err = models.NewProduct(coerced)
		}
		if err == nil {
			if first, dup := seen[name]; dup {
				err = fmt.Errorf("duplicate of row %d", first)
			}
		}
		if err != nil {
			result.Errors = append(result.Errors, models.BulkRowError{Row: line, Name: name, Message: err.Error()})
			continue
		}
		seen[name] = line
	}
	result.ErrorsCount = len(result.Errors)
	result.Message = fmt.Sprintf("%d of %d rows valid", result.TotalRows-result.ErrorsCount, result.TotalRows)
	return result, nil
}

// ImportProducts creates one product per row through CreateProduct. Row
// failures are collected and do not stop the import.
func (s *ProductService) ImportProducts(ctx context.Context, r io.Reader, filename string) (*models.BulkImportResult, error) {
	header, rows, err := parseSheet(r, filename)
	if err != nil {
		return nil, err
	}

	result := &models.BulkImportResult{TotalRows: len(rows), Errors: []models.BulkRowError{}}
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fields := rowFields(header, row)
		name, _ := fields[models.FieldName].(string)

		if _, err := s.CreateProduct(ctx, fields, nil); err != nil {
			result.Errors = append(result.Errors, models.BulkRowError{
				Row:     i + 2,
				Name:    name,
				Message: apperrors.From(err).Message,
			})
			continue
		}
		result.InsertedCount++
	}
	result.ErrorsCount = len(result.Errors)
	result.Message = fmt.Sprintf("Imported %d of %d products", result.InsertedCount, result.TotalRows)

	s.log(ctx).Info("bulk import finished",
		zap.String("file", filename),
		zap.Int("inserted", result.InsertedCount),
		zap.Int("errors", result.ErrorsCount),
	)
	return result, nil
}
