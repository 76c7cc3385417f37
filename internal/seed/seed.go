// Package seed fills the database with demo users, groups, posts, comments
// and follows. It is meant for development only.
package seed

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

// Options controls how much data is generated.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	FollowsPerUser  int
	// DryRun builds everything in memory without writing.
	DryRun bool
	// SkipBcrypt stores a cheap hash, for fast local runs.
	SkipBcrypt bool
	Seed       int64
}

// GroupSpec is one entry of a groups YAML file.
type GroupSpec struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Description string `yaml:"description"`
}

// DefaultGroups is used when no groups file is given.
var DefaultGroups = []GroupSpec{
	{Title: "Лев Толстой", Slug: "tolstoy", Description: "Группа, посвящённая Льву Толстому"},
	{Title: "Коты", Slug: "cats", Description: "Всё о котах"},
	{Title: "Путешествия", Slug: "travel", Description: "Заметки из поездок"},
}

// LoadGroups reads a YAML list of groups.
func LoadGroups(path string) ([]GroupSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read groups file: %w", err)
	}
	var groups []GroupSpec
	if err := yaml.Unmarshal(raw, &groups); err != nil {
		return nil, fmt.Errorf("parse groups file: %w", err)
	}
	for i, g := range groups {
		if strings.TrimSpace(g.Slug) == "" || strings.TrimSpace(g.Title) == "" {
			return nil, fmt.Errorf("group %d: title and slug are required", i)
		}
	}
	return groups, nil
}

// Result counts what a run produced.
type Result struct {
	Users    []*models.User
	Groups   []*models.Group
	Posts    []*models.Post
	Comments int
	Follows  int
}

// Seeder generates demo data with gofakeit.
type Seeder struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	rng    *rand.Rand
	nextID uint
}

// NewSeeder binds a Seeder to db. db may be nil in dry-run mode.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{
		db:     db,
		opts:   opts,
		faker:  gofakeit.New(seed),
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // demo data
		nextID: 1000,
	}
}

func (s *Seeder) create(value any, setID func(uint)) error {
	if s.opts.DryRun {
		s.nextID++
		setID(s.nextID)
		return nil
	}
	return s.db.Omit("Author", "Group", "User", "Post").Create(value).Error
}

// Run creates groups, users, posts, comments and follows.
func (s *Seeder) Run(groups []GroupSpec) (*Result, error) {
	if groups == nil {
		groups = DefaultGroups
	}
	res := &Result{}

	for _, gs := range groups {
		g, err := s.group(gs)
		if err != nil {
			return nil, fmt.Errorf("group %s: %w", gs.Slug, err)
		}
		res.Groups = append(res.Groups, g)
	}

	hash, err := s.passwordHash()
	if err != nil {
		return nil, err
	}
	for i := 0; i < s.opts.Users; i++ {
		u := &models.User{
			Username:  fmt.Sprintf("%s%d", strings.ToLower(s.faker.Username()), i),
			Email:     s.faker.Email(),
			FirstName: s.faker.FirstName(),
			LastName:  s.faker.LastName(),
			Password:  hash,
		}
		if err := s.create(u, func(id uint) { u.ID = id }); err != nil {
			return nil, fmt.Errorf("user: %w", err)
		}
		res.Users = append(res.Users, u)
	}

	for _, u := range res.Users {
		for i := 0; i < s.opts.PostsPerUser; i++ {
			p := s.post(u, res.Groups)
			if err := s.create(p, func(id uint) { p.ID = id }); err != nil {
				return nil, fmt.Errorf("post: %w", err)
			}
			res.Posts = append(res.Posts, p)
		}
	}

	if len(res.Users) > 0 {
		for _, p := range res.Posts {
			for i := 0; i < s.opts.CommentsPerPost; i++ {
				c := &models.Comment{
					PostID:   p.ID,
					AuthorID: res.Users[s.rng.Intn(len(res.Users))].ID,
					Text:     s.faker.Sentence(8),
				}
				if err := s.create(c, func(id uint) { c.ID = id }); err != nil {
					return nil, fmt.Errorf("comment: %w", err)
				}
				res.Comments++
			}
		}
	}

	n, err := s.follows(res.Users)
	if err != nil {
		return nil, err
	}
	res.Follows = n

	middleware.Logger.Info("seeding finished",
		slog.Int("groups", len(res.Groups)),
		slog.Int("users", len(res.Users)),
		slog.Int("posts", len(res.Posts)),
		slog.Int("comments", res.Comments),
		slog.Int("follows", res.Follows),
		slog.Bool("dry_run", s.opts.DryRun))
	return res, nil
}

func (s *Seeder) passwordHash() (string, error) {
	if s.opts.SkipBcrypt || s.opts.DryRun {
		h, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
		return string(h), err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	return string(h), err
}

// group returns the existing group with the slug of gs or creates it.
func (s *Seeder) group(gs GroupSpec) (*models.Group, error) {
	g := &models.Group{Title: gs.Title, Slug: gs.Slug, Description: gs.Description}
	if !s.opts.DryRun {
		var existing models.Group
		err := s.db.Where("slug = ?", gs.Slug).First(&existing).Error
		if err == nil {
			return &existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if err := s.create(g, func(id uint) { g.ID = id }); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Seeder) post(author *models.User, groups []*models.Group) *models.Post {
	p := &models.Post{
		Text:     s.faker.Paragraph(1, 3, 12, "\n"),
		AuthorID: author.ID,
		PubDate:  time.Now().Add(-time.Duration(s.rng.Intn(90*24)) * time.Hour),
	}
	// Roughly a third of the posts stay outside any group.
	if len(groups) > 0 && s.rng.Intn(3) != 0 {
		g := groups[s.rng.Intn(len(groups))]
		p.GroupID = &g.ID
	}
	return p
}

func (s *Seeder) follows(users []*models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	count := 0
	for _, u := range users {
		seen := map[uint]bool{u.ID: true}
		for i := 0; i < s.opts.FollowsPerUser && len(seen) < len(users); i++ {
			author := users[s.rng.Intn(len(users))]
			if seen[author.ID] {
				continue
			}
			seen[author.ID] = true
			f := &models.Follow{UserID: u.ID, AuthorID: author.ID}
			if err := s.create(f, func(id uint) { f.ID = id }); err != nil {
				return count, fmt.Errorf("follow: %w", err)
			}
			count++
		}
	}
	return count, nil
}
