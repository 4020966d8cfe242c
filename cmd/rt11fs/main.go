package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/velocityboy/rt11fs"
	"github.com/velocityboy/rt11fs/disks"
)

func main() {
	app := cli.App{
		Usage: "Inspect and modify RT-11 disk images",
		Commands: []*cli.Command{
			{
				Name:      "ls",
				Usage:     "List the files on a volume",
				ArgsUsage: "IMAGE",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "long", Aliases: []string{"l"}, Usage: "dump every directory entry"},
				},
				Action: listVolume,
			},
			{
				Name:      "info",
				Usage:     "Show usage statistics for a volume",
				ArgsUsage: "IMAGE",
				Action:    volumeInfo,
			},
			{
				Name:      "cat",
				Usage:     "Copy a file to standard output",
				ArgsUsage: "IMAGE FILE",
				Action:    catFile,
			},
			{
				Name:      "get",
				Usage:     "Copy a file out of a volume",
				ArgsUsage: "IMAGE FILE [DEST]",
				Action:    getFile,
			},
			{
				Name:      "put",
				Usage:     "Copy a host file into a volume",
				ArgsUsage: "IMAGE HOSTFILE [NAME]",
				Action:    putFile,
			},
			{
				Name:      "rm",
				Usage:     "Remove a file from a volume",
				ArgsUsage: "IMAGE FILE",
				Action:    removeFile,
			},
			{
				Name:      "mv",
				Usage:     "Rename a file on a volume",
				ArgsUsage: "IMAGE OLDNAME NEWNAME",
				Action:    renameFile,
			},
			{
				Name:      "format",
				Usage:     "Create a freshly formatted image file",
				ArgsUsage: "IMAGE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "device",
						Usage: "size the image for a known device (" + strings.Join(disks.PredefinedDiskGeometrySlugs(), ", ") + ")",
					},
					&cli.IntFlag{Name: "blocks", Usage: "size the image to an explicit number of 512-byte blocks"},
					&cli.IntFlag{Name: "segments", Usage: "directory segments (default: per device, else 4)"},
				},
				Action: formatImage,
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatalf("fatal error: %s", err.Error())
	}
}

func mountArg(c *cli.Context) (*rt11fs.FileSystem, error) {
	if c.NArg() < 1 {
		return nil, fmt.Errorf("missing image argument")
	}
	return rt11fs.MountPath(c.Args().Get(0))
}

func listVolume(c *cli.Context) error {
	fs, err := mountArg(c)
	if err != nil {
		return err
	}
	defer fs.Unmount()

	if c.Bool("long") {
		fs.ListDirectory(os.Stdout)
		return nil
	}

	ents, err := fs.ReadDir("/")
	if err != nil {
		return err
	}

	for _, ent := range ents {
		fmt.Printf("%-10s %7d", ent.Name, ent.Length)
		if !ent.CreateTime.IsZero() {
			fmt.Printf("  %s", ent.CreateTime.Format("2006-01-02"))
		}
		fmt.Println()
	}

	return nil
}

func volumeInfo(c *cli.Context) error {
	fs, err := mountArg(c)
	if err != nil {
		return err
	}
	defer fs.Unmount()

	stats, err := fs.StatFS("/")
	if err != nil {
		return err
	}

	fmt.Printf("block size:      %d\n", stats.BlockSize)
	fmt.Printf("data blocks:     %d\n", stats.TotalBlocks)
	fmt.Printf("free blocks:     %d\n", stats.BlocksFree)
	fmt.Printf("directory slots: %d\n", stats.Files)
	fmt.Printf("free slots:      %d\n", stats.FilesFree)

	return nil
}

func readWholeFile(fs *rt11fs.FileSystem, name string) ([]byte, error) {
	attr, err := fs.GetAttr("/" + name)
	if err != nil {
		return nil, err
	}

	fd, err := fs.Open("/" + name)
	if err != nil {
		return nil, err
	}
	defer fs.Release(fd)

	data := make([]byte, attr.Size)
	n, err := fs.Read(fd, data, 0)
	if err != nil {
		return nil, err
	}

	return data[:n], nil
}

func catFile(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: cat IMAGE FILE")
	}

	fs, err := mountArg(c)
	if err != nil {
		return err
	}
	defer fs.Unmount()

	data, err := readWholeFile(fs, strings.ToUpper(c.Args().Get(1)))
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(data)
	return err
}

func getFile(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: get IMAGE FILE [DEST]")
	}

	fs, err := mountArg(c)
	if err != nil {
		return err
	}
	defer fs.Unmount()

	name := strings.ToUpper(c.Args().Get(1))
	dest := c.Args().Get(2)
	if dest == "" {
		dest = strings.ToLower(name)
	}

	data, err := readWholeFile(fs, name)
	if err != nil {
		return err
	}

	return os.WriteFile(dest, data, 0o644)
}

func putFile(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: put IMAGE HOSTFILE [NAME]")
	}

	data, err := os.ReadFile(c.Args().Get(1))
	if err != nil {
		return err
	}

	name := c.Args().Get(2)
	if name == "" {
		name = filepath.Base(c.Args().Get(1))
	}
	name = strings.ToUpper(name)

	fs, err := mountArg(c)
	if err != nil {
		return err
	}
	defer fs.Unmount()

	fd, err := fs.Create("/" + name)
	if err != nil {
		return err
	}

	if _, err := fs.Write(fd, data, 0); err != nil {
		fs.Release(fd)
		return err
	}

	return fs.Release(fd)
}

func removeFile(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("usage: rm IMAGE FILE")
	}

	fs, err := mountArg(c)
	if err != nil {
		return err
	}
	defer fs.Unmount()

	if err := fs.Unlink("/" + strings.ToUpper(c.Args().Get(1))); err != nil {
		return err
	}

	return fs.Fsync()
}

func renameFile(c *cli.Context) error {
	if c.NArg() < 3 {
		return fmt.Errorf("usage: mv IMAGE OLDNAME NEWNAME")
	}

	fs, err := mountArg(c)
	if err != nil {
		return err
	}
	defer fs.Unmount()

	return fs.Rename(
		"/"+strings.ToUpper(c.Args().Get(1)),
		"/"+strings.ToUpper(c.Args().Get(2)))
}

func formatImage(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("usage: format IMAGE")
	}

	blocks := c.Int("blocks")
	segments := c.Int("segments")

	if slug := c.String("device"); slug != "" {
		geometry, err := disks.GetPredefinedDiskGeometry(slug)
		if err != nil {
			return err
		}
		if blocks == 0 {
			blocks = int(geometry.TotalBlocks)
		}
		if segments == 0 {
			segments = int(geometry.DirectorySegments)
		}
	}

	if blocks == 0 {
		return fmt.Errorf("one of --device or --blocks is required")
	}
	if segments == 0 {
		segments = 4
	}

	image, err := rt11fs.FormatImage(blocks, segments, 0)
	if err != nil {
		return err
	}

	return os.WriteFile(c.Args().Get(0), image, 0o644)
}
