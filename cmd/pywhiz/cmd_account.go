package main

import (
	"context"
	"fmt"
	"time"
)

// cmdLogin logs in and saves the session for later commands
func cmdLogin(args []string) error {
	return withApp(func(ctx context.Context, a *app) error {
		var email string
		if len(args) > 0 {
			email = args[0]
		} else {
			var err error
			if email, err = prompt("Email: "); err != nil {
				return err
			}
		}
		password, err := promptSecret("Password: ")
		if err != nil {
			return err
		}

		if err := a.store.Login(ctx, email, password); err != nil {
			return err
		}
		fmt.Printf("✓ Logged in as %s\n", a.store.CurrentUser().DisplayName())
		return nil
	})
}

// cmdLogout ends the session. Local progress flags are kept.
func cmdLogout() error {
	return withApp(func(ctx context.Context, a *app) error {
		if !a.store.IsAuthenticated() {
			fmt.Println("Not logged in.")
			return nil
		}
		a.store.Logout(ctx)
		fmt.Println("✓ Logged out")
		return nil
	})
}

func cmdSignup(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: pywhiz signup <username> <email>")
	}
	return withApp(func(ctx context.Context, a *app) error {
		password, err := promptSecret("Choose a password: ")
		if err != nil {
			return err
		}
		user, err := a.store.Signup(ctx, args[0], args[1], password)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Account created for %s\n", user.DisplayName())
		fmt.Printf("Check %s for a verification code, then run:\n  pywhiz verify %s <code>\n", args[1], args[1])
		return nil
	})
}

func cmdVerify(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: pywhiz verify <email> <code>")
	}
	return withApp(func(ctx context.Context, a *app) error {
		msg, err := a.store.VerifyEmail(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s\n", msg)
		return nil
	})
}

func cmdForgotPassword(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: pywhiz forgot-password <email>")
	}
	return withApp(func(ctx context.Context, a *app) error {
		msg, err := a.store.RequestPasswordReset(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s\n", msg)
		return nil
	})
}

func cmdResetPassword(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: pywhiz reset-password <email> <code>")
	}
	return withApp(func(ctx context.Context, a *app) error {
		password, err := promptSecret("New password: ")
		if err != nil {
			return err
		}
		msg, err := a.store.ResetPassword(ctx, args[0], args[1], password)
		if err != nil {
			return err
		}
		fmt.Printf("✓ %s\n", msg)
		return nil
	})
}

// cmdStatus shows the session and local cache state
func cmdStatus() error {
	return withApp(func(ctx context.Context, a *app) error {
		fmt.Println("PyWhiz Status")
		fmt.Println("=============")
		fmt.Printf("API:     %s\n", a.client.BaseURL())
		fmt.Printf("Cache:   %s\n", a.cfg.Cache.Driver)

		user := a.store.CurrentUser()
		if user == nil {
			fmt.Println("Session: not logged in")
			return nil
		}
		fmt.Printf("Session: %s <%s>\n", user.DisplayName(), user.Email)
		if exp, ok := a.client.AccessTokenExpiry(); ok {
			fmt.Printf("Expires: %s (%s)\n", exp.Local().Format(time.RFC1123), time.Until(exp).Round(time.Second))
		}
		return nil
	})
}
