// Command imageshop is a terminal client for the image-licensing storefront.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", userError(err))
		os.Exit(1)
	}
}

// rootOpts are the persistent flags.
type rootOpts struct {
	envFile string
	apiURL  string
	json    bool
}

// newRootCmd builds the command tree. The app is created lazily by PersistentPreRunE so that
// help and version never touch the network or the session store.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &rootOpts{}
	var a *app

	root := &cobra.Command{
		Use:           "imageshop",
		Short:         "Browse, buy and download licensed images",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `imageshop talks to the storefront REST API.

Environment Variables:
  IMAGESHOP_API_BASE_URL  Backend API URL (default: https://localhost:7147/api)
  IMAGESHOP_STORE         Session store: memory, file, postgres or redis (default: file)
  IMAGESHOP_STORE_KEY     Passphrase sealing the file store
  IMAGESHOP_LEDGER        Purchase ledger: auto, remote or local (default: auto)
  IMAGESHOP_PASSWORD      Password used when --password is omitted`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations[annotationNoApp] == "true" {
				return nil
			}
			var err error
			a, err = newApp(cmd.Context(), opts, out, errOut)
			return err
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a != nil {
				a.Close()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file with IMAGESHOP_* settings")
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", "", "backend API URL (overrides IMAGESHOP_API_BASE_URL)")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print JSON instead of tables")

	get := func() *app { return a }
	root.AddCommand(
		newVersionCmd(out),
		newLoginCmd(get),
		newLogoutCmd(get),
		newMeCmd(get),
		newRegisterCmd(get),
		newVerifyCmd(get),
		newResendCodeCmd(get),
		newPasswdCmd(get),
		newTopUpCmd(get),
		newGalleryCmd(get),
		newCartCmd(get),
		newCheckoutCmd(get),
		newBuyCmd(get),
		newDownloadCmd(get),
		newPurchasesCmd(get),
		newTransactionsCmd(get),
		newAdminCmd(get),
	)
	return root
}

const annotationNoApp = "noapp"

func newVersionCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the client version",
		Annotations: map[string]string{annotationNoApp: "true"},
		Args:        cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintf(out, "imageshop %s (%s)\n", version, buildDate)
		},
	}
}
