package main

import (
	"context"
	"fmt"
	"imgtools/contracts"
	"imgtools/converter"
	"imgtools/files_manager"
	"imgtools/pdfinfo"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

var pdfCmd = &cobra.Command{
	Use:   "pdf [images...]",
	Short: "Assemble images into one PDF, one image per page",
	Long: `pdf places every image on its own page of a fixed size, scaled down to
fit when needed and centered. Images are re-encoded as JPEG at quality 0.92.

With --input, every sub-directory of the input directory holding images
becomes one PDF named after the directory; directories are converted
concurrently.`,
	RunE: runPDF,
}

func init() {
	pdfCmd.Flags().String("input", "", "input root directory for batch conversion")
	pdfCmd.Flags().String("output", ".", "output directory")
	pdfCmd.Flags().String("name", "", "output file name (default: <image>.pdf or images.pdf)")
	pdfCmd.Flags().Bool("verify", false, "read every produced PDF back and check its pages")

	rootCmd.AddCommand(pdfCmd)
}

func readInputFlags(cmd *cobra.Command, args []string) (contracts.InputFlags, error) {
	page, err := cfg.PageSize()
	if err != nil {
		return contracts.InputFlags{}, err
	}
	backend, err := cfg.PDFBackend()
	if err != nil {
		return contracts.InputFlags{}, err
	}
	inputRootDir, _ := cmd.Flags().GetString("input")
	outputDir, _ := cmd.Flags().GetString("output")
	verify, _ := cmd.Flags().GetBool("verify")
	return contracts.InputFlags{
		Files:        args,
		InputRootDir: inputRootDir,
		OutputDir:    outputDir,
		Page:         page,
		Backend:      backend,
		Verify:       verify,
	}, nil
}

func runPDF(cmd *cobra.Command, args []string) error {
	flags, err := readInputFlags(cmd, args)
	if err != nil {
		return err
	}
	assembler := converter.NewAssembler(flags.Page, flags.Backend, logger)

	startTime := time.Now()
	defer func() {
		logger.Info("finished", "elapsed", time.Since(startTime).Round(time.Millisecond))
	}()

	if flags.InputRootDir != "" {
		if len(flags.Files) > 0 {
			return fmt.Errorf("use either --input or image arguments, not both")
		}
		return runBatch(cmd.Context(), assembler, flags)
	}

	images := make([]contracts.InputImage, 0, len(flags.Files))
	for _, path := range flags.Files {
		in := files_manager.InputFromPath(path)
		if !files_manager.IsImage(in.MediaType) {
			logger.Warn("skipping non-image file", "path", path, "type", in.MediaType)
			continue
		}
		images = append(images, in)
	}
	if len(images) == 0 {
		return converter.ErrEmptyInput
	}

	name, _ := cmd.Flags().GetString("name")
	if name == "" {
		name = converter.OutputName(images)
	}
	if err := os.MkdirAll(flags.OutputDir, 0o755); err != nil {
		return err
	}
	pdfPath := filepath.Join(flags.OutputDir, name)

	doc, err := assembler.AssembleFile(cmd.Context(), images, pdfPath)
	if err != nil {
		return err
	}
	if flags.Verify {
		if err := verifyPDF(pdfPath, doc); err != nil {
			return err
		}
	}
	fmt.Printf("Converted %d image(s) to %s\n", doc.PageCount(), pdfPath)
	return nil
}

func runBatch(ctx context.Context, assembler *converter.Assembler, flags contracts.InputFlags) error {
	if err := files_manager.CheckProvidedDirs(flags.InputRootDir, flags.OutputDir); err != nil {
		return err
	}
	folders, err := files_manager.GetImageFolders(flags.InputRootDir)
	if err != nil {
		return err
	}
	if len(folders) == 0 {
		fmt.Println("No images found in the input directory.")
		return nil
	}
	logger.Info("starting batch", "folders", len(folders))

	maxConversions := max(runtime.NumCPU()-1, 1)
	sem := make(chan struct{}, maxConversions)
	results := make([]contracts.BatchResult, len(folders))

	var wg sync.WaitGroup
	for i, folder := range folders {
		results[i] = contracts.BatchResult{Folder: folder.Name, Status: contracts.StatusIdle}
		wg.Add(1)
		go func(i int, folder contracts.ImageFolder) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			results[i].Status = contracts.StatusConverting
			results[i].PDFPath = filepath.Join(flags.OutputDir, folder.Name+".pdf")

			images := make([]contracts.InputImage, 0, len(folder.ImagePaths))
			for _, path := range folder.ImagePaths {
				images = append(images, files_manager.InputFromPath(path))
			}
			doc, err := assembler.AssembleFile(ctx, images, results[i].PDFPath)
			if err == nil && flags.Verify {
				err = verifyPDF(results[i].PDFPath, doc)
			}
			if err != nil {
				results[i].Status = contracts.StatusError
				results[i].Err = err
				return
			}
			results[i].Pages = doc.PageCount()
			results[i].Status = contracts.StatusDone
		}(i, folder)
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Status == contracts.StatusError {
			failed++
			fmt.Printf("[%s] %s: %v\n", r.Status, r.Folder, r.Err)
			continue
		}
		fmt.Printf("[%s] %s: %d page(s) -> %s\n", r.Status, r.Folder, r.Pages, r.PDFPath)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d folder(s) failed", failed, len(results))
	}
	return nil
}

func verifyPDF(path string, doc *converter.Document) error {
	info, err := pdfinfo.InspectFile(path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if info.Pages != doc.PageCount() {
		return fmt.Errorf("verify %s: %d page(s), expected %d", path, info.Pages, doc.PageCount())
	}
	if !info.Uniform() {
		return fmt.Errorf("verify %s: pages differ in size", path)
	}
	logger.Debug("verified", "path", path, "pages", info.Pages)
	return nil
}
