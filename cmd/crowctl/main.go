// Command crowctl is a terminal storefront for CrowRepuestos: browse the
// catalog, manage the cart and wishlist, and log in. Without a session the
// cart and wishlist live in local files; after login they are kept on the
// server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/crowrepuestos/storefront/client/api"
	"github.com/crowrepuestos/storefront/client/credentials"
	"github.com/crowrepuestos/storefront/client/store"
	"github.com/crowrepuestos/storefront/pkg/logger"
)

const defaultServer = "http://localhost:8080"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: crowctl <command> [arguments]

Commands:
  browse [-search text] [-page n]   list catalog products
  product <id>                      show one product
  register -email ... -password ... -first ... -last ...
  login -email ... -password ...
  logout
  cart show | add <id> [-qty n] | set <id> -qty n | rm <id> | clear | push
  wish show | add <id> | rm <id> | clear | push

The server address comes from CROWCTL_SERVER (default %s).
`, defaultServer)
}

type cli struct {
	client *api.Client
	creds  *credentials.FileStore
	cart   *store.CartStore
	wish   *store.WishlistStore
}

func newCLI() (*cli, error) {
	server := os.Getenv("CROWCTL_SERVER")
	if server == "" {
		server = defaultServer
	}

	// Log to stderr so warnings do not interleave with tabular output.
	log := logger.NewWithWriter("crowctl", os.Getenv("CROWCTL_LOG_LEVEL"), os.Stderr)

	credPath, err := credentials.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("resolve credential path: %w", err)
	}
	cartPath, err := store.DefaultCartPath()
	if err != nil {
		return nil, fmt.Errorf("resolve cart path: %w", err)
	}
	wishPath, err := store.DefaultWishlistPath()
	if err != nil {
		return nil, fmt.Errorf("resolve wishlist path: %w", err)
	}

	creds := credentials.NewFileStore(credPath)
	client := api.New(server, log)

	return &cli{
		client: client,
		creds:  creds,
		cart: store.NewCart(store.Config{
			Credentials: creds,
			API:         client,
			FilePath:    cartPath,
			Logger:      log,
		}),
		wish: store.NewWishlist(store.Config{
			Credentials: creds,
			API:         client,
			FilePath:    wishPath,
			Logger:      log,
		}),
	}, nil
}

func run(args []string) error {
	if len(args) == 0 {
		usage()
		return fmt.Errorf("missing command")
	}

	c, err := newCLI()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "browse":
		return c.browse(ctx, rest)
	case "product":
		return c.product(ctx, rest)
	case "register":
		return c.register(ctx, rest)
	case "login":
		return c.login(ctx, rest)
	case "logout":
		return c.logout(ctx)
	case "cart":
		return c.cartCmd(ctx, rest)
	case "wish":
		return c.wishCmd(ctx, rest)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (c *cli) browse(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	search := fs.String("search", "", "search text over name, brand and compatible models")
	page := fs.Int("page", 1, "page number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	products, total, err := c.client.ListProducts(ctx, *search, *page, 20)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBRAND\tPRICE\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", p.ID, p.Name, p.Brand, pesos(p.Price), p.Stock)
	}
	w.Flush()
	fmt.Printf("%d products total\n", total)
	return nil
}

func (c *cli) product(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: crowctl product <id>")
	}

	p, err := c.client.GetProduct(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", p.Name)
	fmt.Printf("  brand:      %s\n", p.Brand)
	fmt.Printf("  price:      %s\n", pesos(p.Price))
	fmt.Printf("  stock:      %d\n", p.Stock)
	if p.CompatibleModels != "" {
		fmt.Printf("  compatible: %s\n", p.CompatibleModels)
	}
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" || *first == "" || *last == "" {
		return fmt.Errorf("register requires -email, -password, -first and -last")
	}

	tokens, err := c.client.Register(ctx, *email, *password, *first, *last)
	if err != nil {
		return err
	}
	return c.startSession(ctx, tokens)
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("login requires -email and -password")
	}

	tokens, err := c.client.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	return c.startSession(ctx, tokens)
}

// startSession saves the credential and pushes locally collected entries to
// the server so nothing picked before login is lost.
func (c *cli) startSession(ctx context.Context, tokens *api.Tokens) error {
	err := c.creds.Save(credentials.TokenPair{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	})
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}

	if err := c.cart.PushLocal(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "warning: cart not pushed to server:", err)
	}
	if err := c.wish.PushLocal(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "warning: wishlist not pushed to server:", err)
	}

	fmt.Println("logged in")
	return nil
}

func (c *cli) logout(ctx context.Context) error {
	if pair := c.creds.Load(); pair != nil {
		if err := c.client.Logout(ctx, pair.AccessToken); err != nil {
			fmt.Fprintln(os.Stderr, "warning: server logout failed:", err)
		}
	}
	if err := c.creds.Clear(); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	fmt.Println("logged out")
	return nil
}

func (c *cli) cartCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
		c.cart.Load(ctx)
		entries := c.cart.Entries()
		if len(entries) == 0 {
			fmt.Println("cart is empty")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE\tLINE")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
				e.Product.ID, e.Product.Name, e.Quantity,
				pesos(e.Product.Price), pesos(e.Product.Price*int64(e.Quantity)))
		}
		w.Flush()
		fmt.Printf("total: %s (%d items)\n", pesos(c.cart.TotalPrice()), c.cart.TotalItems())
		return nil

	case "add":
		fs := flag.NewFlagSet("cart add", flag.ContinueOnError)
		qty := fs.Int("qty", 1, "quantity to add")
		if len(args) < 2 {
			return fmt.Errorf("usage: crowctl cart add <productID> [-qty n]")
		}
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		product, err := c.client.GetProduct(ctx, args[1])
		if err != nil {
			return err
		}
		if err := c.cart.Add(ctx, *product, *qty); err != nil {
			return err
		}
		fmt.Printf("added %d x %s\n", *qty, product.Name)
		return nil

	case "set":
		fs := flag.NewFlagSet("cart set", flag.ContinueOnError)
		qty := fs.Int("qty", -1, "new quantity (0 removes)")
		if len(args) < 2 {
			return fmt.Errorf("usage: crowctl cart set <productID> -qty n")
		}
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		if *qty < 0 {
			return fmt.Errorf("cart set requires -qty")
		}
		return c.cart.UpdateQuantity(ctx, args[1], *qty)

	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: crowctl cart rm <productID>")
		}
		return c.cart.Remove(ctx, args[1])

	case "clear":
		return c.cart.Clear(ctx)

	case "push":
		return c.cart.PushLocal(ctx)

	default:
		return fmt.Errorf("unknown cart subcommand %q", args[0])
	}
}

func (c *cli) wishCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}

	switch args[0] {
	case "show":
		c.wish.Load(ctx)
		products := c.wish.Products()
		if len(products) == 0 {
			fmt.Println("wishlist is empty")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tBRAND\tPRICE")
		for _, p := range products {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Brand, pesos(p.Price))
		}
		w.Flush()
		return nil

	case "add":
		if len(args) != 2 {
			return fmt.Errorf("usage: crowctl wish add <productID>")
		}
		product, err := c.client.GetProduct(ctx, args[1])
		if err != nil {
			return err
		}
		if err := c.wish.Add(ctx, *product); err != nil {
			return err
		}
		fmt.Printf("added %s\n", product.Name)
		return nil

	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: crowctl wish rm <productID>")
		}
		return c.wish.Remove(ctx, args[1])

	case "clear":
		return c.wish.Clear(ctx)

	case "push":
		return c.wish.PushLocal(ctx)

	default:
		return fmt.Errorf("unknown wish subcommand %q", args[0])
	}
}

// pesos formats a COP amount with thousands separators.
func pesos(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, d := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, d)
	}
	if neg {
		return "-$" + string(out)
	}
	return "$" + string(out)
}
