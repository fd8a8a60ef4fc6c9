package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
	"github.com/dmitrijs2005/gophauth/internal/common"
)

var errPasswordMismatch = errors.New("passwords do not match")

// Register prompts for the account fields, creates the account and keeps the
// returned token, so the user is logged in right away.
func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.report(err)
	}
	first, err := GetSimpleText(a.reader, "Enter first name", a.out)
	if err != nil {
		return a.report(err)
	}
	last, err := GetSimpleText(a.reader, "Enter last name", a.out)
	if err != nil {
		return a.report(err)
	}
	phone, err := GetSimpleText(a.reader, "Enter phone (optional)", a.out)
	if err != nil {
		return a.report(err)
	}

	password, err := a.newPassword()
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	reg := models.Registration{Email: email, FirstName: first, LastName: last, Password: string(password)}
	if phone != "" {
		reg.Phone = &phone
	}

	res, err := a.api.Register(ctx, reg)
	if err != nil {
		return a.report(err)
	}

	a.signedIn(res)
	fmt.Fprintf(a.out, "Registered as %s (id %d)\n", res.User.Email, res.User.ID)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return a.report(err)
	}

	password, err := GetPassword(a.out, "Enter password: ")
	if err != nil {
		return a.report(err)
	}
	defer common.WipeByteArray(password)

	res, err := a.api.Login(ctx, email, password)
	if err != nil {
		return a.report(err)
	}

	a.signedIn(res)
	fmt.Fprintf(a.out, "Welcome, %s\n", res.User.FullName())
	return nil
}

func (a *App) Verify(ctx context.Context) error {
	res, err := a.api.Verify(ctx)
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintf(a.out, "%s: %s (id %d)\n", res.Message, res.User.Email, res.User.ID)
	return nil
}

func (a *App) Refresh(ctx context.Context) error {
	res, err := a.api.Refresh(ctx)
	if err != nil {
		return a.report(err)
	}
	a.signedIn(res)
	fmt.Fprintf(a.out, "Token refreshed, valid until %s\n", res.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	err := a.api.Logout(ctx)
	a.userName = ""
	a.expiresAt = time.Time{}
	if err != nil {
		return a.report(err)
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) signedIn(res *models.AuthResult) {
	a.userName = res.User.Email
	a.expiresAt = res.ExpiresAt
}

// newPassword reads a password twice and returns it only if both entries
// match. The caller wipes the result.
func (a *App) newPassword() ([]byte, error) {
	password, err := GetPassword(a.out, "Enter new password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := GetPassword(a.out, "Repeat new password: ")
	if err != nil {
		common.WipeByteArray(password)
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(password, confirm) {
		common.WipeByteArray(password)
		return nil, errPasswordMismatch
	}
	return password, nil
}
