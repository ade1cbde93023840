package main

import (
	"io"
	"os"

	"github.com/and161185/imageshop/internal/errs"
	"github.com/and161185/imageshop/internal/model"
	"github.com/spf13/cobra"
)

// password returns flagVal, falling back to IMAGESHOP_PASSWORD.
func password(flagVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return os.Getenv("IMAGESHOP_PASSWORD")
}

func newLoginCmd(get func() *app) *cobra.Command {
	var email, pw string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			u, err := a.shop.Login(cmd.Context(), model.LoginRequest{Email: email, Password: password(pw)})
			if err != nil {
				return err
			}
			return a.emit(u, func(w io.Writer) error { return printUser(w, u) })
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&pw, "password", "p", "", "account password")
	return cmd
}

func newLogoutCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			get().shop.Session.Logout(cmd.Context())
			cmd.Println("signed out")
			return nil
		},
	}
}

func newMeCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			a := get()
			u := a.shop.Session.User()
			if u == nil {
				return errs.ErrAuthRequired
			}
			return a.emit(u, func(w io.Writer) error { return printUser(w, u) })
		},
	}
}

func newRegisterCmd(get func() *app) *cobra.Command {
	var req model.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; a verification code is emailed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req.Password = password(req.Password)
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			if err := get().shop.Session.Register(cmd.Context(), req); err != nil {
				return err
			}
			cmd.Println("verification code sent to", req.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "new password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm", "", "repeat the password (defaults to --password)")
	return cmd
}

func newVerifyCmd(get func() *app) *cobra.Command {
	var req model.CompleteRegistrationRequest
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm the emailed code and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			req.Password = password(req.Password)
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.Password
			}
			u, err := a.shop.Session.CompleteRegistration(cmd.Context(), req)
			if err != nil {
				return err
			}
			return a.emit(u, func(w io.Writer) error { return printUser(w, u) })
		},
	}
	cmd.Flags().StringVarP(&req.Email, "email", "e", "", "account email")
	cmd.Flags().StringVar(&req.Code, "code", "", "6-digit verification code")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password chosen at registration")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm", "", "repeat the password (defaults to --password)")
	return cmd
}

func newResendCodeCmd(get func() *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resend-code",
		Short: "Send a fresh verification code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := get().shop.Session.ResendVerificationCode(cmd.Context(), email); err != nil {
				return err
			}
			cmd.Println("code sent")
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func newPasswdCmd(get func() *app) *cobra.Command {
	var req model.ChangePasswordRequest
	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change the account password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.ConfirmPassword == "" {
				req.ConfirmPassword = req.NewPassword
			}
			if err := get().shop.Session.ChangePassword(cmd.Context(), req); err != nil {
				return err
			}
			cmd.Println("password changed")
			return nil
		},
	}
	cmd.Flags().StringVar(&req.CurrentPassword, "current", "", "current password")
	cmd.Flags().StringVar(&req.NewPassword, "new", "", "new password")
	cmd.Flags().StringVar(&req.ConfirmPassword, "confirm", "", "repeat the new password (defaults to --new)")
	return cmd
}

func newTopUpCmd(get func() *app) *cobra.Command {
	var fake bool
	cmd := &cobra.Command{
		Use:   "topup AMOUNT",
		Short: "Add funds to the balance",
		Long:  "Add funds to the balance. --fake credits a local simulated balance only.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			amount, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			var u *model.User
			if fake {
				u, err = a.shop.Session.FakeTopUp(cmd.Context(), amount)
			} else {
				u, err = a.shop.Session.TopUpBalance(cmd.Context(), amount)
			}
			if err != nil {
				return err
			}
			return a.emit(u, func(w io.Writer) error { return printUser(w, u) })
		},
	}
	cmd.Flags().BoolVar(&fake, "fake", false, "credit the local simulated balance")
	return cmd
}
