package seed

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	enc "github.com/MrJamesThe3rd/revstay/internal/encoding"
	"github.com/MrJamesThe3rd/revstay/internal/money"
	"github.com/MrJamesThe3rd/revstay/internal/user"
)

var (
	userColumns     = []string{"username", "full_name", "email", "role"}
	propertyColumns = []string{"seller", "title", "location"}
)

// UserRow is one line of a users file.
type UserRow struct {
	Username string
	FullName string
	Email    string
	Role     user.Role
	Phone    string
}

// PropertyRow is one line of a properties file. Seller is a username.
type PropertyRow struct {
	Seller       string
	Title        string
	Description  string
	PropertyType string
	Location     string
	Price        *int64 // Minor units; nil when the cell is empty
}

// ParseUsers reads username,full_name,email,role,phone with a header row.
// Column order is free; phone is optional.
func ParseUsers(r io.Reader) ([]UserRow, error) {
	cols, rows, err := readTable(r, userColumns)
	if err != nil {
		return nil, err
	}

	out := make([]UserRow, 0, len(rows))

	for i, row := range rows {
		rowNum := i + 2

		u := UserRow{
			Username: cols.value(row, "username"),
			FullName: cols.value(row, "full_name"),
			Email:    cols.value(row, "email"),
			Phone:    cols.value(row, "phone"),
		}

		if u.Username == "" {
			return nil, fmt.Errorf("row %d: missing username", rowNum)
		}

		if u.Email == "" {
			return nil, fmt.Errorf("row %d: missing email", rowNum)
		}

		role, err := user.ParseRole(cols.value(row, "role"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}

		u.Role = role
		out = append(out, u)
	}

	return out, nil
}

// ParseProperties reads seller,title,description,property_type,location,price
// with a header row. Prices are in major units.
func ParseProperties(r io.Reader) ([]PropertyRow, error) {
	cols, rows, err := readTable(r, propertyColumns)
	if err != nil {
		return nil, err
	}

	out := make([]PropertyRow, 0, len(rows))

	for i, row := range rows {
		rowNum := i + 2

		p := PropertyRow{
			Seller:       cols.value(row, "seller"),
			Title:        cols.value(row, "title"),
			Description:  cols.value(row, "description"),
			PropertyType: cols.value(row, "property_type"),
			Location:     cols.value(row, "location"),
		}

		if p.Seller == "" || p.Title == "" {
			return nil, fmt.Errorf("row %d: seller and title are required", rowNum)
		}

		if s := cols.value(row, "price"); s != "" {
			minor, err := money.ParseMajor(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", rowNum, err)
			}

			if minor <= 0 {
				return nil, fmt.Errorf("row %d: price must be positive", rowNum)
			}

			p.Price = &minor
		}

		out = append(out, p)
	}

	return out, nil
}

// colIndex maps lower-cased header names to their index in the row.
type colIndex map[string]int

func (c colIndex) value(row []string, name string) string {
	idx, ok := c[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// readTable decodes r to UTF-8 and splits off the header. Blank lines are
// skipped by encoding/csv.
func readTable(r io.Reader, required []string) (colIndex, [][]string, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("detect encoding: %w", err)
	}

	reader := csv.NewReader(utf8r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("empty file: expected a header row")
	}

	cols := make(colIndex)

	for i, cell := range rows[0] {
		if name := strings.ToLower(strings.TrimSpace(cell)); name != "" {
			cols[name] = i
		}
	}

	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	return cols, rows[1:], nil
}
