// podcli is a terminal front end for the podstream API: account setup,
// episode browsing and publishing without a browser.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jessevdk/go-flags"

	"podstream/internal/client"
	"podstream/internal/media"
)

var opts struct {
	Server string `short:"s" long:"server" env:"PODSTREAM_SERVER" default:"http://localhost:8080" description:"API base URL"`
	Token  string `short:"t" long:"token" env:"PODSTREAM_TOKEN" description:"bearer token from a previous login"`

	Register registerCmd `command:"register" description:"Create an account and print its token"`
	Login    loginCmd    `command:"login" description:"Log in and print a token"`
	List     listCmd     `command:"list" description:"List published episodes"`
	Show     showCmd     `command:"show" description:"Show one episode"`
	Upload   uploadCmd   `command:"upload" description:"Publish an episode from a local audio file"`
	Delete   deleteCmd   `command:"delete" description:"Delete an episode you own"`
}

type registerCmd struct {
	Email    string `long:"email" required:"true" description:"account email"`
	Password string `long:"password" required:"true" description:"account password (6+ characters)"`
	Name     string `long:"name" required:"true" description:"display name"`
}

type loginCmd struct {
	Email    string `long:"email" required:"true" description:"account email"`
	Password string `long:"password" required:"true" description:"account password"`
}

type listCmd struct{}

type showCmd struct {
	Args struct {
		ID string `positional-arg-name:"episode-id" required:"true"`
	} `positional-args:"true"`
}

type uploadCmd struct {
	Audio       string `short:"a" long:"audio" required:"true" description:"audio file (mp3)"`
	Image       string `short:"i" long:"image" description:"cover image file"`
	Title       string `long:"title" description:"episode title (defaults to the audio tag title)"`
	Description string `long:"description" description:"episode description"`
	Author      string `long:"author" description:"author (defaults to the audio tag artist)"`
	Category    string `long:"category" description:"category (server default: General)"`
}

type deleteCmd struct {
	Args struct {
		ID string `positional-arg-name:"episode-id" required:"true"`
	} `positional-args:"true"`
}

func newClient() *client.Client {
	var copts []client.Option
	if opts.Token != "" {
		copts = append(copts, client.WithToken(opts.Token))
	}
	return client.New(opts.Server, copts...)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}

func (c *registerCmd) Execute(_ []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	session, err := newClient().Register(ctx, c.Email, c.Password, c.Name)
	if err != nil {
		return err
	}
	fmt.Printf("registered %s (%s)\n", session.User.Name, session.User.Email)
	fmt.Printf("token: %s\n", session.Token)
	return nil
}

func (c *loginCmd) Execute(_ []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	session, err := newClient().Login(ctx, c.Email, c.Password)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", session.User.Name, session.User.Email)
	fmt.Printf("token: %s\n", session.Token)
	return nil
}

func (c *listCmd) Execute(_ []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	episodes, err := newClient().ListEpisodes(ctx)
	if err != nil {
		return err
	}
	if len(episodes) == 0 {
		fmt.Println("no episodes published yet")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tDURATION\tSIZE\tPUBLISHED")
	for _, e := range episodes {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Title, e.Author, e.FormatDuration(), e.FormatSize(),
			e.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func (c *showCmd) Execute(_ []string) error {
	ctx, cancel := cmdContext()
	defer cancel()

	e, err := newClient().GetEpisode(ctx, c.Args.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Title:       %s\n", e.Title)
	fmt.Printf("Author:      %s\n", e.Author)
	fmt.Printf("Category:    %s\n", e.Category)
	fmt.Printf("Duration:    %s\n", e.FormatDuration())
	fmt.Printf("Size:        %s\n", e.FormatSize())
	fmt.Printf("Owner:       %s (%s)\n", e.Owner.Name, e.Owner.Email)
	fmt.Printf("Published:   %s\n", e.CreatedAt.Local().Format(time.RFC1123))
	fmt.Printf("Audio:       %s\n", e.AudioURL)
	if e.ImageURL != nil {
		fmt.Printf("Image:       %s\n", *e.ImageURL)
	}
	if e.Description != "" {
		fmt.Printf("\n%s\n", e.Description)
	}
	return nil
}

func (c *uploadCmd) Execute(_ []string) error {
	if opts.Token == "" {
		return errors.New("upload requires --token (run login first)")
	}

	audio, err := readUpload(c.Audio, "audio/mpeg")
	if err != nil {
		return err
	}

	title, author := c.Title, c.Author
	if title == "" || author == "" {
		if tags, err := media.ReadTags(bytes.NewReader(audio.Data)); err == nil {
			if title == "" {
				title = tags.Title
			}
			if author == "" {
				author = tags.Artist
			}
		}
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(c.Audio), filepath.Ext(c.Audio))
	}

	input := client.CreateEpisodeInput{
		Title:       title,
		Description: c.Description,
		Author:      author,
		Category:    c.Category,
		Audio:       audio,
	}
	if c.Image != "" {
		image, err := readUpload(c.Image, "image/jpeg")
		if err != nil {
			return err
		}
		input.Image = &image
	}

	ctx, cancel := cmdContext()
	defer cancel()

	e, err := newClient().CreateEpisode(ctx, input)
	if err != nil {
		return err
	}
	fmt.Printf("published %q as %s\n", e.Title, e.ID)
	return nil
}

func (c *deleteCmd) Execute(_ []string) error {
	if opts.Token == "" {
		return errors.New("delete requires --token (run login first)")
	}

	ctx, cancel := cmdContext()
	defer cancel()

	if err := newClient().DeleteEpisode(ctx, c.Args.ID); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", c.Args.ID)
	return nil
}

func readUpload(path, fallbackType string) (client.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return client.Upload{}, err
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = fallbackType
	}
	return client.Upload{
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func main() {
	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			p.WriteHelp(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
