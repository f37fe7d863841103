package formats

const (
	mimeZip  = "application/zip"
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeODT  = "application/vnd.oasis.opendocument.text"
)

var defaultSpecs = []Spec{
	{Format: DOCX, Family: FamilyDocument, Extensions: []string{".docx"}, MIMETypes: []string{mimeDOCX, mimeZip}},
	{Format: PDF, Family: FamilyDocument, Extensions: []string{".pdf"}, MIMETypes: []string{"application/pdf"}},
	{Format: TXT, Family: FamilyDocument, Extensions: []string{".txt"}},
	{Format: RTF, Family: FamilyDocument, Extensions: []string{".rtf"}, MIMETypes: []string{"text/rtf", "application/rtf"}},
	{Format: HTML, Family: FamilyDocument, Extensions: []string{".html", ".htm"}},
	{Format: ODT, Family: FamilyDocument, Extensions: []string{".odt"}, MIMETypes: []string{mimeODT, mimeZip}},
	{Format: MD, Family: FamilyDocument, Extensions: []string{".md", ".markdown"}},

	{Format: XLSX, Family: FamilySpreadsheet, Extensions: []string{".xlsx"}, MIMETypes: []string{mimeXLSX, mimeZip}},
	{Format: CSV, Family: FamilySpreadsheet, Extensions: []string{".csv"}},

	{Format: PNG, Family: FamilyImage, Extensions: []string{".png"}, MIMETypes: []string{"image/png"}, Alpha: true, Raster: true},
	{Format: JPG, Family: FamilyImage, Extensions: []string{".jpg", ".jpeg"}, MIMETypes: []string{"image/jpeg"}, Raster: true},
	{Format: GIF, Family: FamilyImage, Extensions: []string{".gif"}, MIMETypes: []string{"image/gif"}, Raster: true},
	{Format: BMP, Family: FamilyImage, Extensions: []string{".bmp"}, MIMETypes: []string{"image/bmp", "image/x-bmp"}, Raster: true},
	{Format: TIFF, Family: FamilyImage, Extensions: []string{".tiff", ".tif"}, MIMETypes: []string{"image/tiff"}, Alpha: true, Raster: true},
	{Format: WEBP, Family: FamilyImage, Extensions: []string{".webp"}, MIMETypes: []string{"image/webp"}, Alpha: true, Raster: true},
	{Format: ICO, Family: FamilyImage, Extensions: []string{".ico"}, MIMETypes: []string{"image/x-icon", "image/vnd.microsoft.icon"}, Alpha: true, Raster: true},
	{Format: SVG, Family: FamilyVector, Extensions: []string{".svg"}},

	{Format: MP4, Family: FamilyVideo, Extensions: []string{".mp4"}},
	{Format: AVI, Family: FamilyVideo, Extensions: []string{".avi"}},
	{Format: MOV, Family: FamilyVideo, Extensions: []string{".mov"}},
	{Format: WMV, Family: FamilyVideo, Extensions: []string{".wmv"}},
	{Format: FLV, Family: FamilyVideo, Extensions: []string{".flv"}},
	{Format: MKV, Family: FamilyVideo, Extensions: []string{".mkv"}},
	{Format: WEBM, Family: FamilyVideo, Extensions: []string{".webm"}},
	{Format: M4V, Family: FamilyVideo, Extensions: []string{".m4v"}},
	{Format: GP3, Family: FamilyVideo, Extensions: []string{".3gp"}},

	{Format: MP3, Family: FamilyAudio, Extensions: []string{".mp3"}},
	{Format: WAV, Family: FamilyAudio, Extensions: []string{".wav"}},
	{Format: AAC, Family: FamilyAudio, Extensions: []string{".aac"}},
	{Format: FLAC, Family: FamilyAudio, Extensions: []string{".flac"}},
	{Format: OGG, Family: FamilyAudio, Extensions: []string{".ogg"}},
	{Format: M4A, Family: FamilyAudio, Extensions: []string{".m4a"}},
	{Format: WMA, Family: FamilyAudio, Extensions: []string{".wma"}},
}
