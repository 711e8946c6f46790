package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/celulandia/cuentas/internal/adapter/http/dto"
	"github.com/celulandia/cuentas/internal/debounce"
	"github.com/celulandia/cuentas/internal/domain"
)

func cotizacionCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "cotizacion",
		Short: "Show the current oficial and blue rates",
		RunE: func(cmd *cobra.Command, args []string) error {
			method, path := http.MethodGet, "/api/v1/cotizaciones/actual"
			if refresh {
				method, path = http.MethodPost, "/api/v1/cotizaciones/refresh"
			}

			data, err := newAPIClient().do(cmd.Context(), method, path, nil, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Skip the cached quote and ask the provider again")

	return cmd
}

type previewOptions struct {
	form    dto.MovementFormRequest
	offline bool
}

func (o *previewOptions) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar((*string)(&o.form.MontoEnviado), "monto", "", "Amount sent, e.g. 1500 or 1.500,50")
	f.StringVar(&o.form.MonedaDePago, "moneda", "ARS", "Payment currency (ARS, USD)")
	f.StringVar(&o.form.CuentaCorriente, "cc", "ARS", "Cuenta corriente (ARS, USD OFICIAL, USD BLUE)")
	f.StringVar((*string)(&o.form.DescuentoPorcentaje), "descuento", "", "Discount percentage")
	f.StringVar((*string)(&o.form.TipoDeCambio), "tc", "", "Manual exchange rate")
	f.StringVar(&o.form.Kind, "kind", string(domain.KindIngreso), "Movement kind (ingreso, egreso, entrega)")
	f.BoolVar(&o.offline, "offline", false, "Compute locally without calling the API")
}

func previewCmd() *cobra.Command {
	opts := &previewOptions{}

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Compute subtotal and total for a movement form",
		RunE: func(cmd *cobra.Command, args []string) error {
			totals, err := preview(cmd.Context(), opts.form, opts.offline)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), totals)
		},
	}
	opts.bind(cmd)

	return cmd
}

// preview computes totals remotely or, offline, with the manual rate or 1.
func preview(ctx context.Context, form dto.MovementFormRequest, offline bool) (*dto.TotalsResponse, error) {
	if !offline {
		data, err := newAPIClient().do(ctx, http.MethodPost, "/api/v1/movimientos/preview", nil, form)
		if err != nil {
			return nil, err
		}
		var totals dto.TotalsResponse
		if err := json.Unmarshal(data, &totals); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		return &totals, nil
	}

	input, err := form.ToUseCaseInput()
	if err != nil {
		return nil, err
	}

	totals := domain.ComputeTotals(domain.TotalsInput{
		MontoEnviado:     domain.ParseAmount(input.MontoEnviado),
		MonedaDePago:     input.MonedaDePago,
		CuentaCorriente:  input.CuentaCorriente,
		DescuentoPercent: domain.ParsePercent(input.DescuentoPercent),
		Rate:             domain.ResolveRate(domain.ParseRate(input.TipoDeCambio), nil),
		Kind:             input.Kind,
	})
	return dto.TotalsFromDomain(&totals), nil
}

func watchCmd() *cobra.Command {
	opts := &previewOptions{}
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Preview totals as form lines arrive on stdin",
		Long: `Reads one form per line, as space separated key=value pairs
(monto, moneda, cc, descuento, tc, kind), and prints the totals for the
latest line once typing pauses. Flags provide defaults for missing keys.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), opts, delay)
		},
	}
	opts.bind(cmd)
	cmd.Flags().DurationVar(&delay, "delay", 300*time.Millisecond, "Pause before previewing the latest line")

	return cmd
}

func watch(ctx context.Context, in io.Reader, out io.Writer, opts *previewOptions, delay time.Duration) error {
	if ctx == nil {
		ctx = context.Background()
	}

	d := debounce.New(ctx, delay, func(ctx context.Context, form dto.MovementFormRequest) (*dto.TotalsResponse, error) {
		return preview(ctx, form, opts.offline)
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range d.Results() {
			if res.Err != nil {
				fmt.Fprintf(out, "error: %v\n", res.Err)
				continue
			}
			fmt.Fprintln(out, formatTotals(res.Output, res.Input.CuentaCorriente))
		}
	}()

	var (
		last    dto.MovementFormRequest
		pending bool
	)
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		form, err := parseFormLine(line, opts.form)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		last, pending = form, true
		d.Submit(form)
	}

	// Input ended: show the final line without waiting out the delay.
	if pending {
		d.Flush(last)
	}
	d.Stop()
	<-done

	return scanner.Err()
}

func parseFormLine(line string, defaults dto.MovementFormRequest) (dto.MovementFormRequest, error) {
	form := defaults
	for _, field := range strings.Fields(line) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			// A bare value is the amount.
			form.MontoEnviado = dto.LooseNumber(field)
			continue
		}
		switch strings.ToLower(key) {
		case "monto":
			form.MontoEnviado = dto.LooseNumber(value)
		case "moneda":
			form.MonedaDePago = value
		case "cc":
			form.CuentaCorriente = value
		case "descuento":
			form.DescuentoPorcentaje = dto.LooseNumber(value)
		case "tc":
			form.TipoDeCambio = dto.LooseNumber(value)
		case "kind":
			form.Kind = value
		default:
			return dto.MovementFormRequest{}, fmt.Errorf("unknown key %q", key)
		}
	}
	return form, nil
}

func formatTotals(t *dto.TotalsResponse, cc string) string {
	viewAs, err := domain.ParseCuentaCorriente(cc)
	if err != nil {
		viewAs = domain.CuentaARS
	}
	return fmt.Sprintf("%s subtotal=%d total=%d descuento=%d%% tc=%s",
		viewAs,
		t.SubTotal.For(viewAs),
		t.MontoTotal.For(viewAs),
		t.DescuentoPorcentaje,
		t.TipoDeCambio.String(),
	)
}

func movimientosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "movimientos",
		Short: "Browse movimientos",
	}

	var getViewAs string
	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a movimiento",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if getViewAs != "" {
				query.Set("view_as", getViewAs)
			}
			data, err := newAPIClient().do(cmd.Context(), http.MethodGet, "/api/v1/movimientos/"+url.PathEscape(args[0]), query, nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), data)
		},
	}
	getCmd.Flags().StringVar(&getViewAs, "view-as", "", "Show amounts under this cuenta corriente")

	var (
		cliente, kind, caja, listViewAs string
		limit, offset                   int
		table                           bool
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List movimientos, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			for key, value := range map[string]string{
				"cliente": cliente,
				"kind":    kind,
				"caja":    caja,
				"view_as": listViewAs,
			} {
				if value != "" {
					query.Set(key, value)
				}
			}
			query.Set("limit", strconv.Itoa(limit))
			query.Set("offset", strconv.Itoa(offset))

			data, err := newAPIClient().do(cmd.Context(), http.MethodGet, "/api/v1/movimientos", query, nil)
			if err != nil {
				return err
			}
			if !table {
				return printJSON(cmd.OutOrStdout(), data)
			}

			var page dto.ListMovementsResponse
			if err := json.Unmarshal(data, &page); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}
			return printTable(cmd.OutOrStdout(), page.Movimientos)
		},
	}
	listCmd.Flags().StringVar(&cliente, "cliente", "", "Filter by cliente (substring)")
	listCmd.Flags().StringVar(&kind, "kind", "", "Filter by kind")
	listCmd.Flags().StringVar(&caja, "caja", "", "Filter by caja")
	listCmd.Flags().StringVar(&listViewAs, "view-as", "", "Show amounts under this cuenta corriente")
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	listCmd.Flags().BoolVar(&table, "table", false, "Print a table instead of JSON")

	cmd.AddCommand(getCmd, listCmd)
	return cmd
}

func printTable(w io.Writer, movements []*dto.MovementResponse) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFECHA\tCLIENTE\tKIND\tCC\tSUBTOTAL\tTOTAL")
	for _, m := range movements {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\n",
			m.ID,
			m.Fecha.Format("2006-01-02"),
			truncate(m.Cliente, 24),
			m.Kind,
			m.Projection.ViewAs,
			m.Projection.SubTotal,
			m.Projection.Monto,
		)
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

func printJSON(w io.Writer, v any) error {
	if raw, ok := v.(json.RawMessage); ok {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		v = decoded
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
