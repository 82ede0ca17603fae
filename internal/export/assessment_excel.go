package export

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"tailingsiq-risk/internal/domain"

	"github.com/xuri/excelize/v2"
)

// AssessmentExportHeader 评估历史导出表头
var AssessmentExportHeader = []string{
	"Assessment ID",
	"Facility ID",
	"Evaluated At",
	"Data Insufficient",
	"Score",
	"Level",
	"Factors",
	"Recommendations",
	"Requested By",
}

// GenerateAssessmentExport 生成评估历史导出 Excel 文件
// assessments 按账本顺序写入，一行一条评估
func GenerateAssessmentExport(assessments []domain.RiskAssessment) ([]byte, error) {
	f := excelize.NewFile()
	// Note: Don't defer Close() here, because WriteTo needs the file to be open

	sheetName := "Risk Assessments"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// 写入表头
	for col, header := range AssessmentExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}
	}

	// 写入数据行
	for rowIdx, a := range assessments {
		values := []interface{}{
			a.AssessmentID,
			a.FacilityID,
			a.EvaluatedAt.UTC().Format(time.RFC3339),
			a.DataInsufficient,
			scoreCell(&a),
			string(a.Level),
			formatFactors(a.Factors),
			strings.Join(a.Recommendations, "; "),
			a.RequestedBy,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}

	return buf.Bytes(), nil
}

// scoreCell 降级评估不输出数值分值
func scoreCell(a *domain.RiskAssessment) interface{} {
	if a.DataInsufficient {
		return "data-insufficient"
	}
	return a.Score
}

// formatFactors 因子列表格式化为单元格文本
func formatFactors(factors []domain.RiskFactor) string {
	parts := make([]string, 0, len(factors))
	for _, f := range factors {
		parts = append(parts, fmt.Sprintf("%s/%s: %s", f.Category, f.Severity, f.Description))
	}
	return strings.Join(parts, "; ")
}
