/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/image/webp"

	"cineprompt/internal/domain"
	"cineprompt/internal/storage"
	"cineprompt/internal/tagging"
)

// Storyboard page geometry in millimetres on A4 portrait.
const (
	pdfMargin     = 20.0
	pdfPageWidth  = 210.0
	pdfPageHeight = 297.0
	pdfContent    = pdfPageWidth - 2*pdfMargin
	pdfImgWidth   = 150.0
	pdfImgHeight  = 84.375
)

var (
	reNotAlnum = regexp.MustCompile(`[^a-zA-Z0-9]`)
	reEmoji    = regexp.MustCompile(`[\x{1F300}-\x{1FAFF}\x{2600}-\x{27BF}\x{2300}-\x{23FF}\x{FE0F}]`)
)

// PDFFileName is the lower-cased title with every non-alphanumeric replaced by "_".
func PDFFileName(title string) string {
	return strings.ToLower(reNotAlnum.ReplaceAllString(title, "_")) + ".pdf"
}

// StripEmoji removes pictographs so core PDF fonts can render the text.
func StripEmoji(s string) string {
	return strings.TrimSpace(reEmoji.ReplaceAllString(s, ""))
}

// storyboard tracks the cursor while laying out the document top to bottom.
type storyboard struct {
	pdf   *gofpdf.Fpdf
	tr    func(string) string
	blobs *storage.BlobStore
	y     float64
	imgN  int
}

// WritePDF renders p as a storyboard document: title, concept, treatment,
// cast, roles, scenes, props and the shot sequence.
func WritePDF(w io.Writer, p domain.Project, blobs *storage.BlobStore) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	sb := &storyboard{
		pdf:   pdf,
		tr:    pdf.UnicodeTranslatorFromDescriptor(""),
		blobs: blobs,
		y:     pdfMargin,
	}
	pdf.SetTitle(p.Title, true)
	pdf.SetCreator("CinePrompt", true)
	pdf.AddPage()

	ix := domain.NewIndex(&p)
	sb.titlePage(p)
	sb.newPage()
	sb.actors(p.Actors)
	sb.newPage()
	sb.characters(p.Characters, ix)
	sb.newPage()
	sb.scenes(p.Scenes)
	sb.props(p.Props)
	sb.newPage()
	sb.shots(p.Shots, ix)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// ExportPDF writes the storyboard PDF to outPath and returns the written path.
func ExportPDF(ph *storage.ProjectHandle, outPath string) (string, error) {
	if ph == nil {
		return "", fmt.Errorf("project handle is nil")
	}
	var buf bytes.Buffer
	if err := WritePDF(&buf, ph.Project, ph.Blobs()); err != nil {
		return "", err
	}
	outPath = resolveOut(ph, outPath, PDFFileName(ph.Project.Title), ".pdf")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return outPath, nil
}

func (sb *storyboard) newPage() {
	sb.pdf.AddPage()
	sb.y = pdfMargin
}

func (sb *storyboard) breakFor(h float64) {
	if sb.y+h > pdfPageHeight-pdfMargin {
		sb.newPage()
	}
}

func (sb *storyboard) font(style string, size float64) {
	sb.pdf.SetFont("Helvetica", style, size)
}

func (sb *storyboard) gray(v int) { sb.pdf.SetTextColor(v, v, v) }

// lines wraps text to width with the current font, keeping explicit newlines.
func (sb *storyboard) lines(text string, width float64) []string {
	var out []string
	for _, para := range strings.Split(sb.tr(text), "\n") {
		if para == "" {
			out = append(out, "")
			continue
		}
		for _, l := range sb.pdf.SplitLines([]byte(para), width) {
			out = append(out, string(l))
		}
	}
	return out
}

func (sb *storyboard) textBlock(lines []string, x, y, step float64) {
	for i, l := range lines {
		sb.pdf.Text(x, y+float64(i)*step, l)
	}
}

func (sb *storyboard) header(text string, size float64) {
	sb.breakFor(15)
	sb.font("B", size)
	sb.pdf.Text(pdfMargin, sb.y, sb.tr(text))
	sb.y += 10
	sb.font("", 10)
}

func (sb *storyboard) paragraph(text string) {
	if text == "" {
		return
	}
	ls := sb.lines(text, pdfContent)
	sb.breakFor(float64(len(ls)) * 5)
	sb.textBlock(ls, pdfMargin, sb.y, 5)
	sb.y += float64(len(ls))*5 + 2
}

func (sb *storyboard) titlePage(p domain.Project) {
	sb.font("B", 24)
	for i, l := range sb.lines(p.Title, pdfContent) {
		sb.pdf.SetXY(pdfMargin, sb.y+12+float64(i)*10)
		sb.pdf.CellFormat(pdfContent, 10, l, "", 0, "C", false, 0, "")
	}
	sb.y += 40

	if p.OriginalIdea != "" {
		sb.header("Concept", 14)
		sb.paragraph(p.OriginalIdea)
		sb.y += 10
	}
	if p.Treatment != "" {
		sb.header("Treatment", 14)
		sb.paragraph(StripEmoji(p.Treatment))
	}
}

// image draws the blob for id centred at the cursor, or a placeholder
// rectangle when there is none or it cannot be decoded.
func (sb *storyboard) image(id string, placeholder int) {
	x := pdfMargin + (pdfContent-pdfImgWidth)/2
	if name, opt, ok := sb.register(id); ok {
		sb.pdf.ImageOptions(name, x, sb.y, pdfImgWidth, pdfImgHeight, false, opt, 0, "")
	} else {
		sb.pdf.SetDrawColor(placeholder, placeholder, placeholder)
		sb.pdf.Rect(x, sb.y, pdfImgWidth, pdfImgHeight, "D")
		sb.font("", 8)
		sb.gray(150)
		sb.pdf.Text(x+pdfImgWidth/2-5, sb.y+pdfImgHeight/2, "No Img")
		sb.gray(0)
	}
	sb.y += pdfImgHeight + 5
}

func (sb *storyboard) register(id string) (string, gofpdf.ImageOptions, bool) {
	if sb.blobs == nil {
		return "", gofpdf.ImageOptions{}, false
	}
	b, err := sb.blobs.Get(id)
	if err != nil {
		return "", gofpdf.ImageOptions{}, false
	}
	data, kind, ok := pdfImage(b)
	if !ok {
		return "", gofpdf.ImageOptions{}, false
	}
	sb.imgN++
	name := fmt.Sprintf("img%d-%s", sb.imgN, id)
	opt := gofpdf.ImageOptions{ImageType: kind}
	sb.pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(data))
	if sb.pdf.Err() {
		sb.pdf.ClearError()
		return "", gofpdf.ImageOptions{}, false
	}
	return name, opt, true
}

// pdfImage returns image bytes gofpdf can embed. WebP is re-encoded as PNG.
func pdfImage(b storage.Blob) ([]byte, string, bool) {
	switch b.Ext {
	case "jpg", "png":
		if _, _, err := image.DecodeConfig(bytes.NewReader(b.Data)); err != nil {
			return nil, "", false
		}
		if b.Ext == "jpg" {
			return b.Data, "JPG", true
		}
		return b.Data, "PNG", true
	case "webp":
		img, err := webp.Decode(bytes.NewReader(b.Data))
		if err != nil {
			return nil, "", false
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", false
		}
		return buf.Bytes(), "PNG", true
	}
	return nil, "", false
}

// described renders an entity card: image, bold name and a gray description.
func (sb *storyboard) described(id, name, desc string, nameSize, descSize float64, placeholder int) {
	sb.breakFor(pdfImgHeight + 40)
	sb.image(id, placeholder)
	sb.font("B", nameSize)
	sb.gray(0)
	sb.pdf.Text(pdfMargin, sb.y+5, sb.tr(name))
	sb.font("", descSize)
	sb.gray(60)
	step := descSize / 2
	ls := sb.lines(desc, pdfContent)
	sb.textBlock(ls, pdfMargin, sb.y+12, step)
	sb.gray(0)
	sb.font("", 10)
	sb.y += float64(len(ls))*step + 25
}

func (sb *storyboard) actors(actors []domain.Actor) {
	sb.header("Cast (Actors)", 18)
	sb.y += 5
	for _, a := range actors {
		sb.described(a.ID, a.Name, a.Description, 14, 10, 200)
	}
}

func (sb *storyboard) characters(chars []domain.Character, reg domain.Registry) {
	sb.header("Character Roles", 18)
	sb.y += 5
	for _, c := range chars {
		sb.breakFor(pdfImgHeight + 50)
		a, hasActor := reg.Actor(c.ActorID)
		co, hasCostume := reg.Costume(c.CostumeID)
		sb.image(c.ID, 200)

		sb.font("B", 14)
		sb.pdf.Text(pdfMargin, sb.y+5, sb.tr(c.Name))
		sb.font("", 10)
		sb.y += 12
		sb.textBlock([]string{
			sb.tr("Played by: " + orUnknown(a.Name)),
			sb.tr("Costume: " + orUnknown(co.Name)),
		}, pdfMargin, sb.y, 5)
		sb.y += 15

		if hasActor || hasCostume {
			if desc := strings.TrimSpace(a.Description + " wearing " + co.Description); desc != "" {
				sb.font("", 9)
				sb.gray(80)
				ls := sb.lines(desc, pdfContent)
				sb.textBlock(ls, pdfMargin, sb.y, 4)
				sb.gray(0)
				sb.font("", 10)
				sb.y += float64(len(ls)) * 4
			}
		}
		sb.y += 20
	}
}

func (sb *storyboard) scenes(scenes []domain.Scene) {
	sb.header("Scenes & Locations", 18)
	sb.y += 5
	for _, s := range scenes {
		sb.described(s.ID, s.Name, s.Description, 10, 9, 200)
	}
}

func (sb *storyboard) props(props []domain.Prop) {
	sb.breakFor(80)
	sb.header("Key Props", 16)
	sb.y += 5
	for _, p := range props {
		sb.described(p.ID, p.Name, p.Description, 10, 9, 220)
	}
}

func (sb *storyboard) shots(shots []domain.Shot, ix *domain.Index) {
	sb.header("Storyboard Sequence", 18)
	sb.y += 5
	colW := pdfContent/2 - 5
	leftX := pdfMargin
	rightX := pdfMargin + pdfContent/2 + 5
	for i, s := range shots {
		sb.breakFor(60)
		sb.pdf.SetFillColor(240, 240, 240)
		sb.pdf.Rect(pdfMargin, sb.y, pdfContent, 8, "F")
		sb.font("B", 10)
		title := s.Title
		if title == "" {
			title = "Untitled Shot"
		}
		sb.pdf.Text(pdfMargin+2, sb.y+5.5, sb.tr(fmt.Sprintf("#%d  %s", i+1, title)))
		sb.y += 12
		top := sb.y

		sb.font("B", 9)
		sb.pdf.Text(leftX, sb.y, "Visuals:")
		sb.y += 4
		sb.font("", 9)
		scene := "SCENE: " + tagging.Expand(tagging.TagRegistry(s.InitialScenePrompt, ix), ix)
		action := "ACTION: " + tagging.Expand(tagging.TagRegistry(s.ActionPrompt, ix), ix)
		ls := sb.lines(scene, colW)
		sb.textBlock(ls, leftX, sb.y, 4)
		sb.y += float64(len(ls))*4 + 2
		ls = sb.lines(action, colW)
		sb.textBlock(ls, leftX, sb.y, 4)
		sb.y += float64(len(ls))*4 + 4
		leftBottom := sb.y

		sb.y = top
		sb.font("B", 9)
		sb.pdf.Text(rightX, sb.y, "Audio & Camera:")
		sb.y += 4
		sb.font("", 9)
		if len(s.DialogueLines) > 0 {
			for _, l := range s.DialogueLines {
				speaker := "Unknown"
				if c, ok := ix.Character(l.CharacterID); ok {
					speaker = c.Name
				}
				dl := sb.lines(fmt.Sprintf("%s: \"%s\"", speaker, l.Text), colW)
				sb.textBlock(dl, rightX, sb.y, 4)
				sb.y += float64(len(dl)) * 4
			}
			sb.y += 2
		}
		if len(s.CameraInstructions) > 0 {
			sb.gray(100)
			for _, c := range s.CameraInstructions {
				sb.pdf.Text(rightX, sb.y, sb.tr(fmt.Sprintf("[%s] %s (%s)", c.Category, c.Value, c.Timing)))
				sb.y += 4
			}
			sb.gray(0)
		}

		sb.y = max(leftBottom, sb.y) + 10
		sb.pdf.SetDrawColor(220, 220, 220)
		sb.pdf.Line(pdfMargin, sb.y-5, pdfPageWidth-pdfMargin, sb.y-5)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
