package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	apploan "github.com/xiebiao/library/internal/application/loan"
	"github.com/xiebiao/library/internal/infrastructure/persistence/gormstore"
)

func newLoansCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "借阅查询",
	}
	cmd.AddCommand(newLoansOverdueCmd(c))
	return cmd
}

func newLoansOverdueCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "overdue",
		Short: "列出逾期未还的借阅,按到期日升序",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, closeDB, err := c.openDB()
			if err != nil {
				return err
			}
			defer closeDB()

			uc := apploan.NewListLoansUseCase(
				gormstore.NewLoanRepository(db),
				gormstore.NewBookRepository(db),
				gormstore.NewUserRepository(db),
			)
			loans, err := uc.ListOverdue(cmd.Context())
			if err != nil {
				return err
			}
			if len(loans) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no overdue loans")
				return nil
			}
			return printOverdue(cmd, loans, time.Now().UTC())
		},
	}
}

func printOverdue(cmd *cobra.Command, loans []apploan.LoanView, now time.Time) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOAN\tUSER\tEMAIL\tBOOK\tDUE\tDAYS OVERDUE")
	for _, l := range loans {
		userName, email := "-", "-"
		if l.User != nil {
			userName, email = l.User.Name, l.User.Email
		}
		title := fmt.Sprintf("(deleted #%d)", l.BookID)
		if l.Book != nil {
			title = l.Book.Title
		}
		days := int(now.Sub(l.DueDate).Hours() / 24)
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\n",
			l.ID, userName, email, title, l.DueDate.Format(time.DateOnly), days)
	}
	return w.Flush()
}
