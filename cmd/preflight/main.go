// cmd/preflight/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/hamed0406/sitewatch/internal/config"
	"github.com/hamed0406/sitewatch/internal/scheduler"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file with configuration")
	pflag.Parse()

	fail := func(msg string) {
		fmt.Fprintln(os.Stderr, "✖", msg)
		os.Exit(1)
	}
	warn := func(msg string) { fmt.Fprintln(os.Stderr, "⚠", msg) }
	ok := func(msg string) { fmt.Println("✔", msg) }

	cfg, err := config.Load(*envFile)
	if err != nil {
		fail("configuration: " + err.Error())
	}
	ok(fmt.Sprintf("%d site(s) configured", len(cfg.Sites)))

	for _, s := range cfg.InvalidSites() {
		warn(fmt.Sprintf("%q is not an http(s) URL; it will most likely always be reported down.", s))
	}

	if cfg.UsesPlaceholderCredentials() {
		warn("BOT_TOKEN/CHAT_ID still hold placeholder values; notifications will fail.")
	} else if cfg.SlackWebhook != "" {
		ok("delivering through Slack webhook")
	} else {
		ok("delivering through Telegram chat " + cfg.ChatID)
	}

	if _, err := scheduler.ParseCalendar(cfg.CronAliveSelf); err != nil {
		warn("CRON_ALIVE_SELF is invalid; the liveness ping will be disabled: " + err.Error())
	} else {
		ok("CRON_ALIVE_SELF=" + cfg.CronAliveSelf)
	}

	if cfg.NervousInterval >= cfg.Interval {
		warn(fmt.Sprintf("NERVOUS_INTERVAL (%s) is not shorter than INTERVAL (%s); recoveries are not detected faster.",
			cfg.NervousInterval, cfg.Interval))
	}

	if cfg.StatusAddr == "" {
		warn("STATUS_ADDR empty; status API disabled.")
	} else {
		ok("STATUS_ADDR=" + cfg.StatusAddr)
	}

	ok("preflight passed")
}
