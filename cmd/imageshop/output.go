package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/model"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// table writes tab-separated rows aligned into columns.
func table(w io.Writer, header string, rows ...string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, r := range rows {
		fmt.Fprintln(tw, r)
	}
	return tw.Flush()
}

func (a *app) emit(v any, human func(io.Writer) error) error {
	if a.json {
		return printJSON(a.out, v)
	}
	return human(a.out)
}

func printUser(w io.Writer, u *model.User) error {
	return table(w, "ID\tNAME\tEMAIL\tROLE\tBALANCE",
		fmt.Sprintf("%s\t%s\t%s\t%s\t%s", u.ID, u.Name, u.Email, u.Role, u.Balance.Format()))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}

// parseAmount reads a dollar amount such as "12.50".
func parseAmount(s string) (model.Money, error) {
	m, err := model.ParseMoney(s)
	if err != nil {
		return 0, errs.Invalid("amount", "Enter an amount like 12.50")
	}
	return m, nil
}
