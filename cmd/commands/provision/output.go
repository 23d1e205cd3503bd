package provision

import (
	"fmt"
	"text/tabwriter"

	"nathanbeddoewebdev/provctl/internal/dns/services"
	"nathanbeddoewebdev/provctl/internal/domain"
	"nathanbeddoewebdev/provctl/internal/tui/styles"

	"github.com/spf13/cobra"
)

// address picks the most useful address attribute of h for display.
func address(h domain.Handle) string {
	for _, key := range []string{
		domain.AttrPublicIPv4,
		domain.AttrVIPv4,
		domain.AttrPrivateIPv4,
		domain.AttrEndpoint,
		domain.AttrWebsiteURL,
		domain.AttrLinuxDevice,
	} {
		if v := h.Attr(key); v != "" {
			return v
		}
	}
	return "-"
}

// printHandles prints one row per handle.
func printHandles(cmd *cobra.Command, handles []domain.Handle) {
	if len(handles) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing was created.")
		return
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tNAME\tID\tSTATUS\tADDRESS")
	for _, h := range handles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", h.Kind, h.Name, h.ID, h.Status, address(h))
	}
	w.Flush()
}

// printRootPasswords prints the generated root passwords, which the
// provider returns only at creation.
func printRootPasswords(cmd *cobra.Command, servers []domain.Handle) {
	var shown bool
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, s := range servers {
		if pw := s.Attr(domain.AttrRootPassword); pw != "" {
			if !shown {
				fmt.Fprintln(w)
				shown = true
			}
			fmt.Fprintf(w, "  Root password (%s):\t%s\n", s.Name, pw)
		}
	}
	if shown {
		fmt.Fprintln(w, "  Save these now - they will not be shown again.")
	}
	w.Flush()
}

func printResolution(cmd *cobra.Command, res *services.Resolution) {
	if res == nil {
		return
	}
	zone := res.Zone.Name
	if res.Created {
		zone += " " + styles.AccentText.Render("(created)")
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Zone:\t%s\n", zone)
	fmt.Fprintf(w, "  Record:\t%s %s %s (ttl %d)\n", res.Record.Name, res.Record.Type, res.Record.Value, res.Record.TTL)
	w.Flush()
}

// resolutionView is the JSON form of a DNS resolution.
type resolutionView struct {
	Zone        string `json:"zone"`
	ZoneCreated bool   `json:"zone_created"`
	RecordID    string `json:"record_id"`
	Name        string `json:"name"`
	Type        string `json:"type"`
	Value       string `json:"value"`
	TTL         int    `json:"ttl"`
}

func newResolutionView(res *services.Resolution) *resolutionView {
	if res == nil {
		return nil
	}
	return &resolutionView{
		Zone:        res.Zone.Name,
		ZoneCreated: res.Created,
		RecordID:    res.Record.ID,
		Name:        res.Record.Name,
		Type:        string(res.Record.Type),
		Value:       res.Record.Value,
		TTL:         res.Record.TTL,
	}
}

// resolutionHandles lists the DNS objects of res for the journal summary.
func resolutionHandles(res *services.Resolution) []domain.Handle {
	if res == nil {
		return nil
	}
	out := []domain.Handle{{ID: res.Record.ID, Kind: domain.KindDNSRecord, Name: res.Record.Name}}
	if res.Created {
		out = append(out, domain.Handle{ID: res.Zone.ID, Kind: domain.KindDNSZone, Name: res.Zone.Name})
	}
	return out
}

// reportPartial prints what a failed build left behind.
func reportPartial(cmd *cobra.Command, handles []domain.Handle) {
	if len(handles) == 0 {
		return
	}
	fmt.Fprintln(cmd.ErrOrStderr(), styles.ErrorText.Render("Build failed. These resources were created and left in place:"))
	w := tabwriter.NewWriter(cmd.ErrOrStderr(), 0, 0, 2, ' ', 0)
	for _, h := range handles {
		fmt.Fprintf(w, "  %s\t%s\t%s\n", h.Kind, h.Name, h.ID)
	}
	w.Flush()
}
