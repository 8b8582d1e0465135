// Package ticket は予約確認チケットのPDF生成を提供する
package ticket

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/davorint/amatlan-booking/internal/domain/booking"
	"github.com/davorint/amatlan-booking/internal/domain/experience"
	"github.com/davorint/amatlan-booking/internal/domain/session"
)

// Generator は予約チケットPDFを生成する
type Generator struct {
	// VerifyBaseURL は受付確認用QRコードのリンク先ベースURL
	VerifyBaseURL string
}

// NewGenerator はGeneratorを作成する
func NewGenerator(verifyBaseURL string) *Generator {
	return &Generator{VerifyBaseURL: verifyBaseURL}
}

// TicketData はチケットに載せる情報一式
// Sessionは開催枠なしの予約ではnil
type TicketData struct {
	Booking    *booking.Booking
	Experience *experience.Experience
	Session    *session.Session
}

// Generate は1ページのA4チケットPDFを生成する
func (g *Generator) Generate(data TicketData) ([]byte, error) {
	b := data.Booking
	exp := data.Experience

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	pdf.SetAutoPageBreak(false, 0)

	// ヘッダー
	pdf.SetFont("Helvetica", "B", 22)
	pdf.Cell(0, 15, "AMATLAN EXPERIENCE TICKET")
	pdf.Ln(22)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(8)

	// 予約概要とQRコード
	yStart := pdf.GetY()
	pdf.SetFillColor(245, 245, 245)
	pdf.Rect(15, yStart, 120, 55, "F")

	pdf.SetXY(20, yStart+7)
	pdf.SetFont("Helvetica", "B", 14)
	pdf.Cell(0, 8, "BOOKING SUMMARY")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Booking ID: %s", b.ID))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Name: %s", b.ContactInfo.Name))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Participants: %d", b.Participants))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Total: %.2f MXN", float64(b.TotalPrice)/100))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", b.Status))

	qrURL := fmt.Sprintf("%s/bookings/%s/verify", g.VerifyBaseURL, b.ID)
	qrBytes, err := qrcode.Encode(qrURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("QRコードの生成に失敗しました: %w", err)
	}
	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qrBytes))
	pdf.ImageOptions("qr", 145, yStart+5, 45, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetY(yStart + 63)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Scan this QR code at check-in.")
	pdf.Ln(10)

	// 体験情報
	drawSectionTitle(pdf, "EXPERIENCE DETAILS")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Experience: %s", exp.Name))
	pdf.Ln(6)
	if exp.Category != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Category: %s", exp.Category))
		pdf.Ln(6)
	}
	if data.Session != nil {
		pdf.Cell(0, 8, fmt.Sprintf("Date & Time: %s", data.Session.StartTime.Format("2006-01-02 15:04")))
		pdf.Ln(6)
		if data.Session.EndTime != nil {
			pdf.Cell(0, 8, fmt.Sprintf("Ends: %s", data.Session.EndTime.Format("2006-01-02 15:04")))
			pdf.Ln(6)
		}
	}
	pdf.Ln(4)

	// 連絡先
	drawSectionTitle(pdf, "CONTACT")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Email: %s", b.ContactInfo.Email))
	pdf.Ln(6)
	if b.ContactInfo.Phone != "" {
		pdf.Cell(0, 8, fmt.Sprintf("Phone: %s", b.ContactInfo.Phone))
		pdf.Ln(6)
	}
	if b.SpecialRequests != "" {
		pdf.MultiCell(0, 8, fmt.Sprintf("Requests: %s", b.SpecialRequests), "", "", false)
	}

	// フッター
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(15, 285, 195, 285)
	pdf.SetY(288)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 8, fmt.Sprintf("Amatlan de Quetzalcoatl - issued %s", time.Now().Format("2006-01-02")), "", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDFの出力に失敗しました: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSectionTitle(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(0, 9, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
}
