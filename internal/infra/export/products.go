package export

import (
	"io"
	"strconv"

	"datesshop/internal/domain/model"

	"github.com/tealeg/xlsx"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var productHeaders = []string{
	"ID", "NameEn", "NameSv", "Price", "Currency", "Stock",
	"CategoryID", "TypeID", "SizeID", "Active", "Image", "CreatedAt", "UpdatedAt",
}

// 商品一覧をxlsxで書き出す
func WriteProducts(w io.Writer, products []model.Product, currency string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return err
	}

	header := sheet.AddRow()
	for _, h := range productHeaders {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.NameEn)
		row.AddCell().SetValue(p.NameSv)
		price, _ := model.MinorToDecimal(p.Price).Float64()
		row.AddCell().SetValue(price)
		row.AddCell().SetValue(currency)
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(optionalID(p.CategoryID))
		row.AddCell().SetValue(optionalID(p.TypeID))
		row.AddCell().SetValue(optionalID(p.SizeID))
		row.AddCell().SetValue(p.IsActive)
		row.AddCell().SetValue(p.ImagePath)
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	return file.Write(w)
}

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}
