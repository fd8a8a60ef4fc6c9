package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Me prints the profile of the logged-in user.
func (a *App) Me(ctx context.Context) error {
	u, err := a.api.Profile(ctx)
	if err != nil {
		return a.report(err)
	}

	phone := "-"
	if u.Phone != nil {
		phone = *u.Phone
	}
	fmt.Fprintf(a.out, "ID:      %d\nEmail:   %s\nName:    %s\nPhone:   %s\nActive:  %t\nCreated: %s\n",
		u.ID, u.Email, u.FullName(), phone, u.IsActive, u.CreatedAt.Local().Format("2006-01-02 15:04"))
	return nil
}

// Users prints every account as a table.
func (a *App) Users(ctx context.Context) error {
	list, err := a.api.ListUsers(ctx)
	if err != nil {
		return a.report(err)
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tACTIVE")
	for _, u := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", u.ID, u.Email, u.FullName(), u.IsActive)
	}
	return tw.Flush()
}

// Passwd changes the password of the logged-in user.
func (a *App) Passwd(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Fprintln(a.out, "Please log in first")
		return nil
	}

	current, err := GetPassword(a.out, "Enter current password: ")
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(current)

	next, err := a.newPassword()
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(next)

	if err := a.api.ChangePassword(ctx, current, next); err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Password changed")
	return nil
}
