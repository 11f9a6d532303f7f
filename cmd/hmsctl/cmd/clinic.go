package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/jrsteele09/go-hms-client/internal/utils"
	"github.com/jrsteele09/go-hms-client/patients"
	"github.com/jrsteele09/go-hms-client/visits"
	"github.com/spf13/cobra"
)

var (
	searchPage int
	searchSize int

	updatePhone string
	updateEmail string
	updateCity  string
	updateState string // "active", "inactive" or empty
)

var patientsCmd = &cobra.Command{
	Use:   "patients",
	Short: "Patient registry",
}

var patientsSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search patients by name, UHID or phone",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := ""
		if len(args) == 1 {
			query = args[0]
		}
		page, err := hms.Patients.Search(cmd.Context(), query, searchPage, searchSize)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UHID\tNAME\tAGE\tGENDER\tPHONE\tACTIVE")
		for _, p := range page.Content {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%t\n", p.UHID, p.FullName, p.Age, p.Gender, p.PhonePrimary, p.Active)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "page %d of %d, %d patients\n", page.Number+1, max(page.TotalPages, 1), page.TotalElements)
		return nil
	},
}

var patientsUpdateCmd = &cobra.Command{
	Use:   "update <patient-uuid>",
	Short: "Change a patient's contact details or active flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		req := patients.UpdateRequest{}
		if flags.Changed("phone") {
			req.PhonePrimary = utils.Ptr(updatePhone)
		}
		if flags.Changed("email") {
			req.Email = utils.Ptr(updateEmail)
		}
		if flags.Changed("city") {
			req.City = utils.Ptr(updateCity)
		}
		switch updateState {
		case "":
		case "active":
			req.Active = utils.Ptr(true)
		case "inactive":
			req.Active = utils.Ptr(false)
		default:
			return fmt.Errorf("--state must be active or inactive, got %q", updateState)
		}

		patient, err := hms.Patients.Update(cmd.Context(), args[0], req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s updated (phone %s, city %s, active %t)\n",
			patient.UHID, patient.FullName, patient.PhonePrimary, utils.FirstNonEmpty(patient.City, "-"), patient.Active)
		return nil
	},
}

var visitsCmd = &cobra.Command{
	Use:   "visits",
	Short: "Visits and OPD queues",
}

var visitsQueueCmd = &cobra.Command{
	Use:   "queue <department-id>",
	Short: "Show a department's OPD queue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var department int64
		if _, err := fmt.Sscan(args[0], &department); err != nil {
			return fmt.Errorf("department id %q: %w", args[0], err)
		}
		queue, err := hms.Visits.Queue(cmd.Context(), department)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TOKEN\tVISIT\tPATIENT\tTYPE\tCOMPLAINT")
		for _, v := range queue {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", v.TokenNumber, v.VisitNumber, v.PatientName, v.VisitType, v.ChiefComplaint)
		}
		return w.Flush()
	},
}

var visitsCheckInCmd = &cobra.Command{
	Use:   "check-in <visit-uuid>",
	Short: "Check a patient in for their visit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		visit, err := hms.Visits.CheckIn(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s checked in, token %d, status %s\n", visit.PatientName, visit.TokenNumber, visit.Status)
		return nil
	},
}

var visitsStatusCmd = &cobra.Command{
	Use:   "status <visit-uuid> <status>",
	Short: "Move a visit to another status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		visit, err := hms.Visits.UpdateStatus(cmd.Context(), args[0], visits.Status(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", visit.VisitNumber, visit.Status)
		return nil
	},
}

func init() {
	patientsSearchCmd.Flags().IntVar(&searchPage, "page", 0, "page number, zero based")
	patientsSearchCmd.Flags().IntVar(&searchSize, "size", 20, "page size")
	updateFlags := patientsUpdateCmd.Flags()
	updateFlags.StringVar(&updatePhone, "phone", "", "primary phone number")
	updateFlags.StringVar(&updateEmail, "email", "", "email address")
	updateFlags.StringVar(&updateCity, "city", "", "city")
	updateFlags.StringVar(&updateState, "state", "", "active or inactive")
	patientsCmd.AddCommand(patientsSearchCmd, patientsUpdateCmd)
	visitsCmd.AddCommand(visitsQueueCmd, visitsCheckInCmd, visitsStatusCmd)
}
