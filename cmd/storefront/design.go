package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	infraRepo "github.com/nickchild-info/conbrako-laser-sub000/internal/infra/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

func newDesignCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "design",
		Short: "Upload or validate laser-cutting design files",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a design file (DXF, SVG, PDF, AI)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, size, err := openDesign(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			uc := usecase.NewDesignUsecase(infraRepo.NewDesignAPIRepository(a.client), a.log)
			res, err := uc.Upload(contextOf(cmd), filepath.Base(args[0]), size, f)
			if res.FileID != "" {
				if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
					return perr
				}
			}
			return err
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Check a DXF file without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, size, err := openDesign(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			uc := usecase.NewDesignUsecase(infraRepo.NewDesignAPIRepository(a.client), a.log)
			res, err := uc.ValidateDXF(contextOf(cmd), filepath.Base(args[0]), size, f)
			if ue, ok := usecase.AsUploadValidationError(err); err == nil || (ok && ue.Remote) {
				if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
					return perr
				}
			}
			return err
		},
	})

	return cmd
}

func openDesign(path string) (*os.File, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, st.Size(), nil
}
