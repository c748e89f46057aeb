package member

import (
	"bytes"
	"fmt"
	"time"

	"filiales-backend/internal/apperr"
	"filiales-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Integrantes"

var exportHeader = []any{
	"ID", "Filial", "Apellido", "Nombre", "Documento", "Email", "Teléfono",
	"Cargo", "N° de socio", "Fecha de nacimiento", "Fecha de ingreso", "Estado",
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("02/01/2006")
}

// WriteSpreadsheet renders members as an xlsx workbook with one header row.
func WriteSpreadsheet(members []models.Member) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", exportHeader); err != nil {
		return nil, err
	}

	for i, m := range members {
		branchName := ""
		if m.Branch != nil {
			branchName = m.Branch.Name
		}
		status := "Activo"
		if !m.Active {
			status = "Inactivo"
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			m.ID, branchName, m.LastName, m.FirstName, m.Document, m.Email, m.Phone,
			m.Position, m.MemberNumber, formatDate(m.BirthDate), formatDate(m.JoinedAt), status,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}

	return f.WriteToBuffer()
}

// GET /api/members/export accepts the same filters as the list.
func ExportMembersHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq, err := filtered(c)
		if err != nil {
			return err
		}

		var members []models.Member
		if err := dbq.WithContext(c.UserContext()).
			Preload("Branch").
			Order("last_name ASC").Order("first_name ASC").Order("id ASC").
			Find(&members).Error; err != nil {
			return apperr.Internal("No se pudieron cargar los integrantes", err)
		}

		buf, err := WriteSpreadsheet(members)
		if err != nil {
			return apperr.Internal("No se pudo generar la planilla", err)
		}

		filename := fmt.Sprintf("integrantes-%s.xlsx", time.Now().Format("20060102"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
		return c.Send(buf.Bytes())
	}
}
