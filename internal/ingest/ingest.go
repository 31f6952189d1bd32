// Package ingest 读取名册、课表、缺勤名单等输入文件
package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
)

// 支持的文件格式
const (
	FormatCSV  = ".csv"
	FormatJSON = ".json"
	FormatXLSX = ".xlsx"
	FormatYAML = ".yaml"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate 用结构体标签校验输入，错误转换为 ValidationErrors，prefix 用于区分第几条记录
func Validate(prefix string, v interface{}) *apperrors.ValidationErrors {
	out := &apperrors.ValidationErrors{}
	err := validate.Struct(v)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.Add(prefix, err.Error())
		return out
	}
	for _, fe := range verrs {
		field := fe.Field()
		if prefix != "" {
			field = prefix + "." + field
		}
		out.Add(field, fmt.Sprintf("failed '%s' check", fe.Tag()))
	}
	return out
}

// formatOf 按扩展名判断格式，.yml 视为 .yaml
func formatOf(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yml" {
		return FormatYAML
	}
	return ext
}

// readRequired 读取必需文件，不存在时返回 INPUT_MISSING
func readRequired(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.InputMissing(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// readOptional 读取可选文件，不存在时返回 nil
func readOptional(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// parseCSV 读取全部行，允许每行列数不同
func parseCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// readSheet 读取工作簿第一个工作表的全部行
func readSheet(path string) ([][]string, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.InputMissing(path)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}
	return rows, nil
}

// readTable 按格式读取 CSV 或 XLSX 表格
func readTable(path string) ([][]string, error) {
	switch formatOf(path) {
	case FormatXLSX:
		return readSheet(path)
	case FormatCSV, "":
		data, err := readRequired(path)
		if err != nil {
			return nil, err
		}
		return parseCSV(data)
	default:
		return nil, apperrors.InvalidInput("path", fmt.Sprintf("unsupported table format %q", filepath.Ext(path)))
	}
}
