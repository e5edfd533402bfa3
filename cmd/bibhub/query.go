package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"bibhub/internal/grpcserver"
	"bibhub/internal/query"
	"bibhub/internal/restaurants"
	"bibhub/pkg/models"
)

const defaultAPI = "http://localhost:8080"

type queryFlags struct {
	api      string
	grpcAddr string
	local    bool
	asJSON   bool

	distinction string
	cooking     string
	text        string
	sort        string
	lat, long   float64
}

func (a *app) queryCommand() *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Search the corpus through the HTTP API, gRPC or the local store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req := query.Request{
				Distinction: f.distinction,
				CookingType: f.cooking,
				Query:       f.text,
				Sort:        strings.ToUpper(f.sort),
			}
			if cmd.Flags().Changed("lat") || cmd.Flags().Changed("long") {
				req.UserLocation = &query.LatLong{Lat: f.lat, Long: f.long}
			}
			if err := req.Validate(); err != nil {
				return err
			}

			found, err := a.search(cmd.Context(), f, req)
			if err != nil {
				return err
			}
			if f.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(found)
			}
			printRestaurants(cmd.OutOrStdout(), found, req.UserLocation)
			return nil
		},
	}

	cmd.Flags().StringVar(&f.api, "api", defaultAPI, "HTTP API base URL")
	cmd.Flags().StringVar(&f.grpcAddr, "grpc", "", "query the gRPC service at this address instead of HTTP")
	cmd.Flags().BoolVar(&f.local, "local", false, "query the configured store directly")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print JSON")
	cmd.Flags().StringVarP(&f.distinction, "distinction", "d", models.DistinctionBibGourmand, "distinction type")
	cmd.Flags().StringVarP(&f.cooking, "cooking", "c", "", "cooking type")
	cmd.Flags().StringVarP(&f.text, "query", "q", "", "name substring")
	cmd.Flags().StringVarP(&f.sort, "sort", "s", "", "RATING_ASC, RATING_DESC, PRICE_ASC, PRICE_DESC or DISTANCE")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "your latitude")
	cmd.Flags().Float64Var(&f.long, "long", 0, "your longitude")
	return cmd
}

func (a *app) search(ctx context.Context, f queryFlags, req query.Request) ([]models.Restaurant, error) {
	switch {
	case f.local:
		backend, err := openStore(ctx, a.cfg)
		if err != nil {
			return nil, err
		}
		defer backend.Close()
		return restaurants.NewService(backend).Search(ctx, req)
	case f.grpcAddr != "":
		return searchGRPC(ctx, f.grpcAddr, req)
	}
	return searchHTTP(ctx, f.api, req)
}

func searchGRPC(ctx context.Context, addr string, req query.Request) ([]models.Restaurant, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	resp, err := grpcserver.NewClient(conn).Search(ctx, &grpcserver.SearchRequest{
		Distinction:  req.Distinction,
		CookingType:  req.CookingType,
		Query:        req.Query,
		Sort:         req.Sort,
		UserLocation: req.UserLocation,
	})
	if err != nil {
		return nil, err
	}
	return resp.Restaurants, nil
}

type searchResponse struct {
	Error       string              `json:"error"`
	Restaurants []models.Restaurant `json:"restaurants"`
}

func searchHTTP(ctx context.Context, baseURL string, req query.Request) ([]models.Restaurant, error) {
	payload := map[string]any{
		"distinction": req.Distinction,
		"cooking":     req.CookingType,
		"query":       req.Query,
		"sorting":     req.Sort,
	}
	if req.UserLocation != nil {
		payload["userLocation"] = req.UserLocation
	}

	var resp searchResponse
	client := &http.Client{Timeout: 15 * time.Second}
	if err := doJSON(ctx, client, http.MethodPost, strings.TrimRight(baseURL, "/")+"/restaurants", payload, &resp); err != nil {
		return nil, err
	}
	return resp.Restaurants, nil
}

func doJSON(ctx context.Context, client *http.Client, method, endpoint string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func printRestaurants(w io.Writer, records []models.Restaurant, from *query.LatLong) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTOWN\tCOOKING\tPRICE\tRATING\tDISTANCE")
	for _, r := range records {
		dist := "-"
		if from != nil {
			if d, ok := query.Distance(r, *from); ok {
				dist = fmt.Sprintf("%.4f", d)
			}
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d-%d\t%.1f\t%s\n",
			r.ID, r.Name, r.Location.Town, r.CookingType, r.Price.Bottom, r.Price.Top, r.Rating, dist)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d restaurants\n", len(records))
}
