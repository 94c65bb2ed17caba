// Command issuetoken mints an operator access token against the configured
// server secret. Run it where the config file lives; hand the printed token
// to the admin console or scanner station it was minted for.
package main

import (
	"bookbyblock-backend/auth"
	"bookbyblock-backend/config"
	"flag"
	"fmt"
	l "log"
	"time"

	"github.com/spf13/viper"
)

func main() {
	cfgPath := flag.String("CONFIG_PATH", "./config.yaml", "Path to config file")
	subject := flag.String("subject", "", "Token subject, e.g. an operator name or station id")
	role := flag.String("role", auth.RoleScanner, "Token role: admin or scanner")
	ttl := flag.Duration("ttl", 24*time.Hour, "Token validity")
	flag.Parse()

	if *subject == "" {
		l.Fatalln("subject is required")
	}
	if !auth.ValidRole(*role) {
		l.Fatalf("unknown role %q", *role)
	}

	viper.SetConfigFile(*cfgPath)
	if err := viper.ReadInConfig(); err != nil {
		l.Fatalln("error reading config")
	}

	signed, err := auth.IssueAccessToken(*subject, *role, viper.GetString(config.Secret), *ttl)
	if err != nil {
		l.Fatalf("error issuing token: %v", err)
	}

	fmt.Println(signed)
}
