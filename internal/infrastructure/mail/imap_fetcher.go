package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
	"github.com/yourusername/article-stock-bot/internal/domain/entity"
	"github.com/yourusername/article-stock-bot/internal/domain/repository"
)

// Config IMAP ulanish sozlamalari
type Config struct {
	Addr     string // host:port, TLS
	Username string
	Password string
	Mailbox  string
	Sender   string // faqat shu jo'natuvchidan kelgan xatlar
}

type imapFetcher struct {
	cfg Config
}

// NewIMAPFetcher yangi IMAP fetcher yaratish
func NewIMAPFetcher(cfg Config) (repository.MailFetcher, error) {
	if cfg.Addr == "" || cfg.Username == "" {
		return nil, fmt.Errorf("imap address and username are required")
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	return &imapFetcher{cfg: cfg}, nil
}

// FetchLatest o'qilmagan xatlarni yangidan eskiga ko'rib chiqish, birinchi .xlsx qaytadi
func (f *imapFetcher) FetchLatest(ctx context.Context) (*entity.Attachment, error) {
	c, stop, err := f.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer stop()

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	if f.cfg.Sender != "" {
		criteria.Header.Add("From", f.cfg.Sender)
	}

	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(uids) == 0 {
		log.Printf("📭 Yangi xatlar yo'q (%s)", f.cfg.Sender)
		return nil, nil
	}

	for i := len(uids) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		att, err := f.fetchMessage(c, uids[i])
		if err != nil {
			log.Printf("⚠️ Xat %d o'qilmadi: %v", uids[i], err)
			continue
		}
		if att == nil {
			continue
		}
		if f.cfg.Sender != "" && !strings.Contains(strings.ToLower(att.From), strings.ToLower(f.cfg.Sender)) {
			continue
		}

		log.Printf("📨 Xat topildi: %q, fayl %s (%d bytes)", att.Subject, att.Filename, len(att.Data))
		return att, nil
	}

	log.Printf("📭 Excel ilovali xat topilmadi")
	return nil, nil
}

// MarkSeen xatga \Seen flag qo'yish
func (f *imapFetcher) MarkSeen(ctx context.Context, att *entity.Attachment) error {
	if att == nil || att.MessageUID == 0 {
		return nil
	}

	c, stop, err := f.connect(ctx)
	if err != nil {
		return err
	}
	defer stop()

	seqset := new(imap.SeqSet)
	seqset.AddNum(att.MessageUID)
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("imap store seen: %w", err)
	}
	return nil
}

// connect ulanish, login va mailbox tanlash. stop() logout qiladi.
func (f *imapFetcher) connect(ctx context.Context) (*client.Client, func(), error) {
	c, err := client.DialTLS(f.cfg.Addr, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("imap dial %s: %w", f.cfg.Addr, err)
	}

	// go-imap v1 context bilan ishlamaydi: bekor qilinganda ulanish uziladi
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Terminate()
		case <-done:
		}
	}()
	stop := func() {
		close(done)
		if err := c.Logout(); err != nil && !errors.Is(err, client.ErrAlreadyLoggedOut) {
			log.Printf("⚠️ IMAP logout: %v", err)
		}
	}

	if err := c.Login(f.cfg.Username, f.cfg.Password); err != nil {
		stop()
		return nil, nil, fmt.Errorf("imap login: %w", err)
	}
	if _, err := c.Select(f.cfg.Mailbox, false); err != nil {
		stop()
		return nil, nil, fmt.Errorf("imap select %s: %w", f.cfg.Mailbox, err)
	}

	return c, stop, nil
}

// fetchMessage bitta xatni BODY.PEEK[] bilan olish (o'qilgan deb belgilanmaydi)
func (f *imapFetcher) fetchMessage(c *client.Client, uid uint32) (*entity.Attachment, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem(), imap.FetchEnvelope, imap.FetchInternalDate}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, messages)
	}()

	var msg *imap.Message
	for m := range messages {
		msg = m
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	if msg == nil {
		return nil, nil
	}

	body := msg.GetBody(section)
	if body == nil {
		return nil, fmt.Errorf("server returned no body")
	}

	att, err := ExtractAttachment(body)
	if err != nil || att == nil {
		return nil, err
	}

	att.MessageUID = uid
	if att.Received.IsZero() {
		att.Received = msg.InternalDate
	}
	return att, nil
}

// ExtractAttachment MIME xatdan birinchi .xlsx ilovani olish. Ilova bo'lmasa nil, nil.
func ExtractAttachment(r io.Reader) (*entity.Attachment, error) {
	mr, err := gomail.CreateReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse message: %w", err)
	}
	defer mr.Close()

	att := &entity.Attachment{}
	if subject, err := mr.Header.Subject(); err == nil {
		att.Subject = subject
	}
	if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
		att.From = from[0].Address
	}
	if date, err := mr.Header.Date(); err == nil {
		att.Received = date
	}

	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read part: %w", err)
		}

		h, ok := p.Header.(*gomail.AttachmentHeader)
		if !ok {
			continue
		}

		filename, err := h.Filename()
		if err != nil || !isSpreadsheet(filename) {
			continue
		}

		data, err := io.ReadAll(p.Body)
		if err != nil {
			return nil, fmt.Errorf("read attachment %s: %w", filename, err)
		}

		att.Filename = filename
		att.Data = data
		return att, nil
	}
}

func isSpreadsheet(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".xlsx")
}
