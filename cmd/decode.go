package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/sidekick64/sidekicknet/cmd/common"
	"github.com/sidekick64/sidekicknet/internal/netman"
	"github.com/sidekick64/sidekicknet/pkg/remote"
	"github.com/sidekick64/sidekicknet/pkg/sktp"
	"github.com/spf13/afero"
	"github.com/urfave/cli"
)

var decodeFlags = []cli.Flag{
	variantFlag,
}

var hostFs = afero.NewOsFs()

func decode(ctx *cli.Context) error {
	file := ctx.Args().First()
	if file == "" {
		return common.PrintErrWithCmdHelp(ctx, errors.New("no response file provided"))
	} else if file == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	v, err := sktp.ParseVariant(variantName)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	data, err := afero.ReadFile(hostFs, file)
	if err != nil {
		common.PrintRuntimeErr(ctx, "decode", "read_file", err)
		return nil
	}
	if err := describeResponse(os.Stdout, data, v); err != nil {
		common.PrintRuntimeErr(ctx, "decode", "decode", err)
	}
	return nil
}

// describeResponse decodes data and prints what it asks for.
func describeResponse(w io.Writer, data []byte, v sktp.Variant) error {
	targets := remote.NewRegistry()
	targets.Put(remote.NewTarget(netman.DefaultDownloadHost, netman.DefaultDownloadPort, netip.Addr{}))
	targets.SetDefault(netman.DefaultDownloadHost)
	d := sktp.Decoder{Targets: targets, Variant: v}

	resp, err := d.Decode(data, len(data))
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Kind:\t\t%s\n", resp.Kind)
	fmt.Fprintf(w, "Size:\t\t%s\n", humanize.Bytes(uint64(len(data))))

	switch resp.Kind {
	case sktp.KindScreen:
		chunks, err := resp.Cursor().All()
		fmt.Fprintf(w, "Chunks:\t\t%d\n", len(chunks))
		scr := newScreen()
		for i, c := range chunks {
			row, col := c.Cell(screenCols)
			fmt.Fprintf(w, "  #%-3d %-6s row %2d col %2d len %3d colour %2d inverse %-5v\n",
				i, chunkKindName(c.Kind), row, col, c.Length, c.Color, c.Inverse)
			scr.apply(c)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(w, scr.Text())
	case sktp.KindPointer:
		p := resp.Pointer
		fmt.Fprintf(w, "URL:\t\t%s\n", p.URL())
		fmt.Fprintf(w, "Host:\t\t%s (registered: %v)\n", p.HostName, p.Matched)
		fmt.Fprintf(w, "File:\t\t%s\n", p.Filename)
		fmt.Fprintf(w, "Type:\t\t%s\n", p.Extension)
		if p.SaveLocally {
			fmt.Fprintf(w, "Save to:\t%s\n", p.LocalSavePath)
		}
	}
	return nil
}

func chunkKindName(k sktp.ChunkKind) string {
	if k == sktp.ChunkRunLength {
		return "fill"
	}
	return "text"
}
