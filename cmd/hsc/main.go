package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"its-hmny.dev/hsc/pkg/contextualizer"
	"its-hmny.dev/hsc/pkg/hstype"
	"its-hmny.dev/hsc/pkg/hv2asm"
	"its-hmny.dev/hsc/pkg/irgen"
	"its-hmny.dev/hsc/pkg/irt"
	"its-hmny.dev/hsc/pkg/lexer"
	"its-hmny.dev/hsc/pkg/parser"

	"github.com/teris-io/cli"
)

var Description = strings.ReplaceAll(`
hsc compiles hs (a small C-family systems language) down to hv2 machine code,
running the lexer, parser, contextualizer, IR generator and IR translator in
sequence before handing the resulting assembly to the two-pass hv2 assembler.
`, "\n", " ")

var Hsc = cli.New(Description).
	WithArg(cli.NewArg("inputs", "The source (.hs) files to be compiled").
		AsOptional().WithType(cli.TypeString)).
	WithOption(cli.NewOption("version", "Prints the compiler version and exits").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("quiet", "Suppresses all non-error output").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("verbose", "Accepted; has no effect").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("assemble", "Accepted; has no effect (input is always compiled as hs source)").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("log", "Logs every stage transition to stderr").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("output-assembly", "Stops after IR translation and writes hv2 assembly text").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("only-symbols", "Stops after assembling and prints each section's name, address and size").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("debug-lexer-output", "Prints the token stream").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("debug-parser-output", "Prints the parsed AST").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("debug-ir-output", "Prints the generated IR").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("debug-irt-output", "Prints the translated assembly text").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("debug-all", "Enables every --debug-* flag at once").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("stdin", "Reads source from stdin instead of a file").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("stdout", "Writes the result to stdout instead of a file").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("stdio", "Shorthand for --stdin and --stdout together").WithType(cli.TypeBool)).
	WithOption(cli.NewOption("include-paths", "Accepted; has no effect (no include search is performed)").WithType(cli.TypeString)).
	WithOption(cli.NewOption("system-include", "Accepted; has no effect (no include search is performed)").WithType(cli.TypeString)).
	WithOption(cli.NewOption("input", "Explicit input file, overriding the positional inputs arg").WithType(cli.TypeString)).
	WithOption(cli.NewOption("output", "Output file path").WithType(cli.TypeString)).
	WithOption(cli.NewOption("output-format", "Output format: raw or elf32 (default raw)").WithType(cli.TypeString)).
	WithOption(cli.NewOption("target-arch", "Target architecture (only hv2 is supported)").WithType(cli.TypeString)).
	WithOption(cli.NewOption("output-symbols", "Accepted; has no effect (no symbol file is written)").WithType(cli.TypeString)).
	WithOption(cli.NewOption("Xasm", "Comma-separated assembler options, e.g. -P3,F").WithType(cli.TypeString)).
	WithOption(cli.NewOption("help-target", "Accepted; has no effect").WithType(cli.TypeString)).
	WithAction(Handler)

func Handler(args []string, options map[string]string) int {
	if _, ok := options["version"]; ok {
		fmt.Println("hsc 0.1.0 (hv2 target)")
		return 0
	}

	if _, ok := options["stdio"]; ok {
		options["stdin"] = "true"
		options["stdout"] = "true"
	}

	debugAll := optSet(options, "debug-all")
	debugLexer := debugAll || optSet(options, "debug-lexer-output")
	debugParser := debugAll || optSet(options, "debug-parser-output")
	debugIR := debugAll || optSet(options, "debug-ir-output")
	debugIRT := debugAll || optSet(options, "debug-irt-output")
	quiet := optSet(options, "quiet")
	logStages := optSet(options, "log")

	log := func(stage string) {
		if logStages && !quiet {
			fmt.Fprintf(os.Stderr, "hsc: entering stage %s\n", stage)
		}
	}

	var inputs []string
	if in, ok := options["input"]; ok {
		inputs = append(inputs, in)
	} else if _, ok := options["stdin"]; ok {
		inputs = append(inputs, "-")
	} else {
		for _, root := range args {
			filepath.Walk(root, func(path string, info fs.FileInfo, err error) error {
				if err != nil {
					return err
				}
				if info.IsDir() || filepath.Ext(path) != ".hs" {
					return nil
				}
				inputs = append(inputs, path)
				return nil
			})
		}
	}

	if len(inputs) < 1 {
		fmt.Printf("ERROR: Not enough arguments provided, use --help\n")
		return -1
	}

	var source strings.Builder
	for _, in := range inputs {
		var content []byte
		var err error
		if in == "-" {
			content, err = readAll(os.Stdin)
		} else {
			content, err = os.ReadFile(in)
		}
		if err != nil {
			fmt.Printf("ERROR: Unable to open input file: %s\n", err)
			return -1
		}
		source.Write(content)
		source.WriteByte('\n')
	}

	log("lexer")
	toks, err := lexer.NewLexer(strings.NewReader(source.String())).Tokenize()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'lexing' pass: %s\n", err)
		return -1
	}
	if debugLexer {
		for _, tok := range toks {
			fmt.Fprintln(os.Stderr, tok.String())
		}
	}

	log("parser")
	reg := hstype.NewRegistry()
	program, err := parser.NewParser(toks, reg).ParseProgram()
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'parsing' pass: %s\n", err)
		return -1
	}
	if debugParser {
		for _, e := range program {
			fmt.Fprintf(os.Stderr, "%T @ %v\n", e, e.Pos())
		}
	}

	log("contextualizer")
	if err := contextualizer.New().Run(program); err != nil {
		fmt.Printf("ERROR: Unable to complete 'contextualizing' pass: %s\n", err)
		return -1
	}

	log("irgen")
	gen := irgen.NewGenerator(reg)
	prog, err := gen.Generate(program)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'ir generation' pass: %s\n", err)
		return -1
	}
	if debugIR {
		for _, fn := range prog.Functions {
			fmt.Fprintf(os.Stderr, "function %s: %d instructions\n", fn.Name, len(fn.Instructions))
		}
	}

	log("irt")
	asmText, err := irt.NewTranslator().Translate(prog)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'translation' pass: %s\n", err)
		return -1
	}
	if debugIRT {
		fmt.Fprintln(os.Stderr, asmText)
	}

	outputPath := options["output"]
	_, toStdout := options["stdout"]

	if _, ok := options["output-assembly"]; ok {
		return writeResult([]byte(asmText), outputPath, toStdout, inputs[0], ".s")
	}

	log("assembler")
	stmts, err := hv2asm.NewParser().Parse(asmText)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'assembly parsing' pass: %s\n", err)
		return -1
	}

	pipeline := parseXasm(options["Xasm"])
	assembler := hv2asm.NewAssembler(pipeline)
	sections, entry, err := assembler.Assemble(stmts)
	if err != nil {
		fmt.Printf("ERROR: Unable to complete 'assembling' pass: %s\n", err)
		return -1
	}

	if _, ok := options["only-symbols"]; ok {
		for _, sec := range sections {
			fmt.Printf("%-12s addr=0x%08x size=%d\n", sec.Name, sec.Addr, len(sec.Data))
		}
		return 0
	}

	format := options["output-format"]
	if format == "" {
		format = "raw"
	}

	var out []byte
	switch format {
	case "raw":
		for _, sec := range sections {
			if sec.Name == ".text" {
				out = sec.Data
				break
			}
		}
		if out == nil && len(sections) > 0 {
			out = sections[0].Data
		}
	case "elf32":
		out, err = hv2asm.WriteELF32(sections, entry)
		if err != nil {
			fmt.Printf("ERROR: Unable to complete 'elf32 emission' pass: %s\n", err)
			return -1
		}
	default:
		fmt.Printf("ERROR: Unknown output format %q, expected raw or elf32\n", format)
		return -1
	}

	ext := ".bin"
	if format == "elf32" {
		ext = ".elf"
	}
	return writeResult(out, outputPath, toStdout, inputs[0], ext)
}

func optSet(options map[string]string, key string) bool {
	_, ok := options[key]
	return ok
}

// parseXasm decodes the comma-separated --Xasm settings: "-P<n>" sets the
// pipeline size, "-f"/"-F" toggles flush-on-branch mode (the leading dash
// may be omitted).
func parseXasm(csv string) hv2asm.PipelineConfig {
	cfg := hv2asm.PipelineConfig{Size: 3}
	if csv == "" {
		return cfg
	}
	for _, tok := range strings.Split(csv, ",") {
		tok = strings.TrimPrefix(strings.TrimSpace(tok), "-")
		switch {
		case strings.HasPrefix(tok, "P"):
			if n, err := strconv.Atoi(strings.TrimPrefix(tok, "P")); err == nil {
				cfg.Size = n
			}
		case tok == "f" || tok == "F":
			cfg.Flush = true
		}
	}
	return cfg
}

func writeResult(data []byte, outputPath string, toStdout bool, firstInput, defaultExt string) int {
	if toStdout || outputPath == "" && firstInput == "-" {
		os.Stdout.Write(data)
		return 0
	}
	if outputPath == "" {
		ext := filepath.Ext(firstInput)
		outputPath = strings.TrimSuffix(firstInput, ext) + defaultExt
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		fmt.Printf("ERROR: Unable to open output file: %s\n", err)
		return -1
	}
	return 0
}

func readAll(f *os.File) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, 4096)
	for {
		n, err := f.Read(chunk)
		buf = append(buf, chunk[:n]...)
		if err != nil {
			break
		}
	}
	return buf, nil
}

func main() { os.Exit(Hsc.Run(os.Args, os.Stdout)) }
