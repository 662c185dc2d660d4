// send-email groups the mail subprograms.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-digitizer/src/pkg/config"
	"receipt-digitizer/src/pkg/email"
	"receipt-digitizer/src/pkg/util"
)

// providerEnvVars are the credentials each provider needs.
var providerEnvVars = map[email.Provider][]string{
	email.ProviderSES:      {"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_REGION"},
	email.ProviderMailgun:  {"MAILGUN_DOMAIN", "MAILGUN_API_KEY"},
	email.ProviderSendGrid: {"SENDGRID_API_KEY"},
}

/*
Pick a provider and use it to send a test email to the specified addresses.
-html and -text point to the message bodies.
*/
func testProvider(subprogram string, flags []string) {
	// common flags
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")

	// custom flags
	provider := subprogramCmd.String("provider", "", "Provider to use when sending emails (default from config)")
	senderAddress := subprogramCmd.String("sender", "", "Sender's address (default from config)")
	recipientAddress := subprogramCmd.String("recipient", "", "Recipient's address, comma separated for several")
	subject := subprogramCmd.String("subject", "Test subject", "Subject of an email")
	emailHtmlFilePath := subprogramCmd.String("html", "./tmp/email.html", "Html of an email")
	emailTextFilePath := subprogramCmd.String("text", "./tmp/email.txt", "Plain text of an email")
	dryRun := subprogramCmd.Bool("dry-run", false, "Log the message instead of sending it")

	// parse and init config
	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	config.InitializeConfig(*configPath)
	chosen, sender := resolveProviderAndSender(*provider, *senderAddress, !*dryRun)

	util.RequiredFlag(&sender, "sender")
	util.RequiredFlag(recipientAddress, "recipient")
	util.EnsureFlags()

	// read html file
	htmlFileContentBytes, err := os.ReadFile(*emailHtmlFilePath)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", *emailHtmlFilePath))
	tl.Log(tl.Verbose, palette.BlueDim, "Full Email:\n```\n%s\n```", htmlFileContentBytes)
	// read text file
	textFileContentBytes, err := os.ReadFile(*emailTextFilePath)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", *emailTextFilePath))
	tl.Log(tl.Verbose, palette.BlueDim, "Full Email:\n```\n%s\n```", textFileContentBytes)

	sendEmails := !*dryRun
	e := email.SendMessage(chosen, &sendEmails, sender, strings.Split(*recipientAddress, ","), *subject, string(textFileContentBytes), string(htmlFileContentBytes), nil)
	e.QuitIf(xerr.ErrorTypeError)
}

/*
Mail a CSV export (for example the receipts.csv of a pipeline run) as an
attachment.
*/
func sendCSV(subprogram string, flags []string) {
	subprogramCmd := flag.NewFlagSet(subprogram, flag.ExitOnError)
	configPath := subprogramCmd.String("config", "./cfg/config.json", "Path to your configuration file.")

	provider := subprogramCmd.String("provider", "", "Provider to use when sending emails (default from config)")
	senderAddress := subprogramCmd.String("sender", "", "Sender's address (default from config)")
	recipientAddress := subprogramCmd.String("recipient", "", "Recipient's address, comma separated for several")
	csvPath := subprogramCmd.String("csv", "", "CSV file to attach")
	subject := subprogramCmd.String("subject", "", "Subject of an email (default from config)")
	dryRun := subprogramCmd.Bool("dry-run", false, "Log the message instead of sending it")

	xerr.QuitIfError(subprogramCmd.Parse(flags), "Unable to subprogramCmd.Parse")
	config.InitializeConfig(*configPath)
	chosen, sender := resolveProviderAndSender(*provider, *senderAddress, !*dryRun)

	util.RequiredFlag(&sender, "sender")
	util.RequiredFlag(recipientAddress, "recipient")
	util.RequiredFlag(csvPath, "csv")
	util.EnsureFlags()

	csvBytes, err := os.ReadFile(*csvPath)
	xerr.QuitIfError(err, fmt.Sprintf("Unable to read file '%s'", *csvPath))

	if *subject == "" {
		*subject = email.Cfg.Subject
	}
	name := filepath.Base(*csvPath)
	text := fmt.Sprintf("The digitized receipts are attached as %s.\n", name)

	sendEmails := !*dryRun
	e := email.SendMessage(
		chosen, &sendEmails, sender, strings.Split(*recipientAddress, ","), *subject, text, "",
		[]email.Attachment{{Filename: name, ContentType: "text/csv; charset=utf-8", Data: csvBytes}},
	)
	e.QuitIf(xerr.ErrorTypeError)
}

// resolveProviderAndSender applies config defaults and, unless dry running, checks the provider's credentials.
func resolveProviderAndSender(providerFlag, senderFlag string, requireCredentials bool) (email.Provider, string) {
	chosen := email.Cfg.Provider
	if providerFlag != "" {
		var e *xerr.Error
		chosen, e = email.ParseProvider(providerFlag)
		e.QuitIf(xerr.ErrorTypeError)
	}
	sender := senderFlag
	if sender == "" {
		sender = email.Cfg.Sender
	}
	if requireCredentials {
		config.CheckIfEnvVarsPresent(providerEnvVars[chosen]...)
	}
	return chosen, sender
}

func main() {
	// Check if there are enough arguments
	if len(os.Args) < 2 {
		tl.Log(tl.Error, palette.Red, "Usage: %s", "go run src/cmd/send-email/main.go subprogram_name (test-provider or send-csv)")
		os.Exit(1)
	}
	subprogram := os.Args[1]
	flags := os.Args[2:]

	// Switch subprogram based on the first argument
	switch subprogram {
	case "test-provider":
		testProvider(subprogram, flags)
	case "send-csv":
		sendCSV(subprogram, flags)
	default:
		tl.Log(tl.Error, palette.Red, "Unknown subprogram: %s", subprogram)
		os.Exit(1)
	}
}
