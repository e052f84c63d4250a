package session

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/magfest/radioman/internal/inventory"
)

var statusTitle = cases.Title(language.AmericanEnglish)

// Report writes the tabular status of every provisioned radio: id, status,
// time since last activity, department, borrower and headset flag, plus
// the headset pool line.
func Report(w io.Writer, store *inventory.Store) error {
	fmt.Fprintf(w, "Headsets: %d / %d\n", store.Headsets(), store.HeadsetTotal())
	fmt.Fprintf(w, "%-3s   %-11s   %-10s   %-15s   %-20s   %-7s\n",
		"ID", "Status", "Since", "Department", "Name", "Headset")

	for _, id := range store.IDs() {
		r, err := store.Get(id)
		if err != nil {
			return err
		}

		since := "-"
		if !r.LastActivity.IsZero() {
			since = r.LastActivity.Format("15:04 Mon")
		}
		headset := "No"
		if r.Checkout.Headset {
			headset = "Yes"
		}

		fmt.Fprintf(w, "%3s   %-11s   %-10s   %-15s   %-20s   %-7s\n",
			id,
			statusLabel(r.Status),
			since,
			orDash(r.Checkout.Department),
			orDash(r.Checkout.Borrower),
			headset,
		)
	}
	return nil
}

// statusLabel renders CHECKED_IN as "Checked In".
func statusLabel(st inventory.Status) string {
	return statusTitle.String(strings.ToLower(strings.ReplaceAll(string(st), "_", " ")))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
