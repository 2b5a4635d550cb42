// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const healthURL = "http://127.0.0.1:3001/health"

type healthResponse struct {
	Status string `json:"status"`
}

func main() {
	fs := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	fs.StringP("url", "u", healthURL, "fleet stats health url to test")
	fs.BoolP("verbose", "v", false, "Be verbose")
	fs.BoolP("tls-skip-verify", "t", false, "Skip TLS server certificate verification")
	fs.Duration("timeout", 10*time.Second, "Request timeout")
	_ = fs.Parse(os.Args[1:])

	v := viper.New()
	_ = v.BindPFlags(fs)

	os.Exit(check(v, os.Stdout))
}

// check returns 0 when the health endpoint answers 200 with status "ok", 1 otherwise.
func check(v *viper.Viper, out io.Writer) int {
	verbose := v.GetBool("verbose")
	url := v.GetString("url")

	if verbose {
		fmt.Fprintln(out, "Checking", url)
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: v.GetBool("tls-skip-verify")},
	}
	httpClient := http.Client{Timeout: v.GetDuration("timeout"), Transport: transport}

	if err := probe(&httpClient, url); err != nil {
		if verbose {
			fmt.Fprintln(out, "Test FAILED:", err)
		}

		return 1
	}

	if verbose {
		fmt.Fprintln(out, "Test OK")
	}

	return 0
}

func probe(client *http.Client, url string) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return err
	}

	var health healthResponse
	if err = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(content, &health); err != nil {
		return fmt.Errorf("invalid health response: %w", err)
	}

	if health.Status != "ok" {
		return fmt.Errorf("unexpected health status %q", health.Status)
	}

	return nil
}
