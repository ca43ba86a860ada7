package analyzer

import (
	"context"
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/specialistvlad/testgrid/internal/model"
)

// Go extracts top-level functions and methods from Go source. Doc comments
// are part of a unit's text. init and blank functions are never units.
type Go struct {
	Exclude []string
}

// ExtractUnits implements Analyzer.
func (g *Go) ExtractUnits(ctx context.Context, item model.SourceItem) ([]model.WorkUnit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, item.ID, item.Content, parser.ParseComments)
	if err != nil {
		return nil, &ExtractionError{Item: item.ID, Err: err}
	}

	var units []model.WorkUnit
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Name.Name == "init" || fn.Name.Name == "_" || excluded(g.Exclude, fn.Name.Name) {
			continue
		}
		start := fn.Pos()
		if fn.Doc != nil {
			start = fn.Doc.Pos()
		}
		u := model.WorkUnit{
			ID:     fn.Name.Name,
			Kind:   model.KindFunction,
			Name:   fn.Name.Name,
			Text:   item.Content[fset.Position(start).Offset:fset.Position(fn.End()).Offset],
			ItemID: item.ID,
			Index:  len(units),
		}
		if fn.Recv != nil && len(fn.Recv.List) > 0 {
			u.Kind = model.KindMethod
			u.Receiver = receiverName(fn.Recv.List[0].Type)
			u.ID = u.Receiver + "." + u.Name
		}
		units = append(units, u)
	}
	return units, nil
}

// receiverName strips pointers and type parameters from a receiver type.
func receiverName(expr ast.Expr) string {
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.ParenExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.Ident:
			return t.Name
		default:
			return "?"
		}
	}
}
