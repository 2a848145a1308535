package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dnsboard/dnsboard/api"
	"github.com/dnsboard/dnsboard/log"

	"github.com/spf13/cobra"
)

// NewSearchCommand creates new command instance
func NewSearchCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "search",
		Args:  cobra.NoArgs,
		Short: "searches the appliance query log",
		RunE:  search,
	}

	c.Flags().StringP("domain", "d", "", "domain substring")
	c.Flags().String("client", "", "client substring")
	c.Flags().StringP("type", "t", "", "query type (A, AAAA, ...)")
	c.Flags().String("blocked", "", "blocked filter (true/false)")
	c.Flags().IntP("limit", "l", 25, "maximum number of records")

	return c
}

func search(cmd *cobra.Command, _ []string) error {
	params := url.Values{}

	for flag, param := range map[string]string{
		"domain": "domain", "client": "client", "type": "queryType", "blocked": "blocked",
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			params.Set(param, v)
		}
	}

	limit, _ := cmd.Flags().GetInt("limit")
	params.Set("limit", fmt.Sprint(limit))

	resp, err := http.Get(apiURL(api.PathQuerylogSearch) + "?" + params.Encode())
	if err != nil {
		return fmt.Errorf("can't execute: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("response NOK, %s", resp.Status)
	}

	var result api.SearchResult

	err = json.NewDecoder(resp.Body).Decode(&result)
	if err != nil {
		return fmt.Errorf("can't read response: %w", err)
	}

	log.Log().Infof("%d records, %d blocked (%.2f%%), %d unique domains, %d unique clients",
		result.Stats.TotalQueries, result.Stats.BlockedQueries, result.Stats.BlockRate,
		result.Stats.UniqueDomains, result.Stats.UniqueClients)

	for _, record := range result.Records {
		marker := " "
		if record.Blocked {
			marker = "B"
		}

		log.Log().Infof("%s %s %-6s %-40s %s",
			marker, record.Timestamp.Format("2006-01-02 15:04:05"), record.QueryType,
			record.Domain, record.ClientResolved)
	}

	return nil
}
